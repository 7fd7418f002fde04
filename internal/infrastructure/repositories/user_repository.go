package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Dylansm37/guardfile/domain"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID                uint           `gorm:"primaryKey"`
	Username          string         `gorm:"uniqueIndex;size:64"`
	Email             string         `gorm:"uniqueIndex;size:255"`
	Phone             string         `gorm:"size:32"`
	PasswordHash      string         `gorm:"column:password"`
	Role              string         `gorm:"index;size:64"`
	IsActive          bool           `gorm:"index"`
	DeviceAuthEnabled bool
	ResetToken        string `gorm:"index;size:128"`
	ResetTokenExpires time.Time
	CreatedAt         time.Time      `gorm:"index"`
	UpdatedAt         time.Time      `gorm:"index"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		return err
	}
	user.ID = dbUser.ID
	return nil
}

// FindByEmail implements domain.UserRepository
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByUsername implements domain.UserRepository
func (r *UserRepositoryImpl) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByResetToken implements domain.UserRepository
func (r *UserRepositoryImpl) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("reset_token = ? AND reset_token <> ''", token).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// Update implements domain.UserRepository
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	return r.db.WithContext(ctx).Save(dbUser).Error
}

// SetDeviceAuthEnabled implements domain.UserRepository
func (r *UserRepositoryImpl) SetDeviceAuthEnabled(ctx context.Context, userID uint, enabled bool) error {
	return r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", userID).
		Update("device_auth_enabled", enabled).Error
}

// domainToDB converts domain user to database user. Save writes every column,
// so the timestamps must ride along or Update would zero created_at.
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:                user.ID,
		Username:          user.Username,
		Email:             user.Email,
		Phone:             user.Phone,
		PasswordHash:      user.PasswordHash,
		Role:              user.Role,
		IsActive:          user.IsActive,
		DeviceAuthEnabled: user.DeviceAuthEnabled,
		ResetToken:        user.ResetToken,
		ResetTokenExpires: user.ResetTokenExpires,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:                dbUser.ID,
		Username:          dbUser.Username,
		Email:             dbUser.Email,
		Phone:             dbUser.Phone,
		PasswordHash:      dbUser.PasswordHash,
		Role:              dbUser.Role,
		IsActive:          dbUser.IsActive,
		DeviceAuthEnabled: dbUser.DeviceAuthEnabled,
		ResetToken:        dbUser.ResetToken,
		ResetTokenExpires: dbUser.ResetTokenExpires,
		CreatedAt:         dbUser.CreatedAt,
		UpdatedAt:         dbUser.UpdatedAt,
	}
}
