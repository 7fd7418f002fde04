package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Dylansm37/guardfile/domain"
)

// DeviceRepositoryImpl implements domain.DeviceRepository using GORM
type DeviceRepositoryImpl struct {
	db *gorm.DB
}

// DBTrustedDevice represents the database model for TrustedDevice. The device
// token only has to be unique within one user's device set, hence the
// composite index.
type DBTrustedDevice struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"uniqueIndex:idx_user_device;index"`
	DeviceToken string `gorm:"uniqueIndex:idx_user_device;size:128"`
	DeviceName  string `gorm:"size:128"`
	UserAgent   string `gorm:"size:512"`
	IPAddress   string `gorm:"size:64"`
	TrustedAt   time.Time
	LastUsedAt  time.Time
}

// TableName returns the table name for GORM
func (DBTrustedDevice) TableName() string {
	return "trusted_devices"
}

// NewDeviceRepository creates a new trusted-device repository
func NewDeviceRepository(db *gorm.DB) domain.DeviceRepository {
	return &DeviceRepositoryImpl{db: db}
}

// Create implements domain.DeviceRepository
func (r *DeviceRepositoryImpl) Create(ctx context.Context, device *domain.TrustedDevice) error {
	dbDevice := &DBTrustedDevice{
		UserID:      device.UserID,
		DeviceToken: device.DeviceToken,
		DeviceName:  device.DeviceName,
		UserAgent:   device.UserAgent,
		IPAddress:   device.IPAddress,
		TrustedAt:   device.TrustedAt,
		LastUsedAt:  device.LastUsedAt,
	}
	if err := r.db.WithContext(ctx).Create(dbDevice).Error; err != nil {
		return err
	}
	device.ID = dbDevice.ID
	return nil
}

// Find implements domain.DeviceRepository
func (r *DeviceRepositoryImpl) Find(ctx context.Context, userID uint, deviceToken string) (*domain.TrustedDevice, error) {
	var dbDevice DBTrustedDevice
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND device_token = ?", userID, deviceToken).
		First(&dbDevice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbDevice), nil
}

// ListByUser implements domain.DeviceRepository
func (r *DeviceRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]domain.TrustedDevice, error) {
	var dbDevices []DBTrustedDevice
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("trusted_at asc").
		Find(&dbDevices).Error
	if err != nil {
		return nil, err
	}

	devices := make([]domain.TrustedDevice, 0, len(dbDevices))
	for i := range dbDevices {
		devices = append(devices, *r.dbToDomain(&dbDevices[i]))
	}
	return devices, nil
}

// TouchLastUsed implements domain.DeviceRepository. The single conditional
// UPDATE doubles as the membership check, so concurrent checks for the same
// account serialize on the row.
func (r *DeviceRepositoryImpl) TouchLastUsed(ctx context.Context, userID uint, deviceToken string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&DBTrustedDevice{}).
		Where("user_id = ? AND device_token = ?", userID, deviceToken).
		Update("last_used_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete implements domain.DeviceRepository. Deleting an absent token is not
// an error.
func (r *DeviceRepositoryImpl) Delete(ctx context.Context, userID uint, deviceToken string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND device_token = ?", userID, deviceToken).
		Delete(&DBTrustedDevice{}).Error
}

func (r *DeviceRepositoryImpl) dbToDomain(dbDevice *DBTrustedDevice) *domain.TrustedDevice {
	return &domain.TrustedDevice{
		ID:          dbDevice.ID,
		UserID:      dbDevice.UserID,
		DeviceToken: dbDevice.DeviceToken,
		DeviceName:  dbDevice.DeviceName,
		UserAgent:   dbDevice.UserAgent,
		IPAddress:   dbDevice.IPAddress,
		TrustedAt:   dbDevice.TrustedAt,
		LastUsedAt:  dbDevice.LastUsedAt,
	}
}
