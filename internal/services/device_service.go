package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dylansm37/guardfile/domain"
)

// DeviceServiceImpl implements domain.DeviceService
type DeviceServiceImpl struct {
	userRepo   domain.UserRepository
	deviceRepo domain.DeviceRepository
	notifySvc  domain.NotificationService
	audit      domain.AuditLogger
}

// NewDeviceService creates a new trusted-device service
func NewDeviceService(
	userRepo domain.UserRepository,
	deviceRepo domain.DeviceRepository,
	notifySvc domain.NotificationService,
	audit domain.AuditLogger,
) domain.DeviceService {
	return &DeviceServiceImpl{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		notifySvc:  notifySvc,
		audit:      audit,
	}
}

// IsTrusted implements domain.DeviceService. Accounts that never enabled
// device auth trust every device, including tokens never seen before; that
// default-open behavior is relied upon and must not be tightened here.
func (s *DeviceServiceImpl) IsTrusted(ctx context.Context, userID uint, deviceToken string) (*domain.DeviceCheck, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.DeviceAuthEnabled {
		return &domain.DeviceCheck{Trusted: true, FeatureEnabled: false}, nil
	}

	hit, err := s.deviceRepo.TouchLastUsed(ctx, userID, deviceToken, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to check device: %w", err)
	}

	return &domain.DeviceCheck{Trusted: hit, FeatureEnabled: true}, nil
}

// Trust implements domain.DeviceService. Trusting an already-trusted token is
// reported with ErrDeviceAlreadyTrusted so callers can treat it as a no-op.
func (s *DeviceServiceImpl) Trust(ctx context.Context, userID uint, deviceToken string, meta domain.DeviceMetadata) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.deviceRepo.Find(ctx, userID, deviceToken); err == nil {
		return domain.ErrDeviceAlreadyTrusted
	} else if err != domain.ErrDeviceNotFound {
		return err
	}

	now := time.Now()
	device := &domain.TrustedDevice{
		UserID:      userID,
		DeviceToken: deviceToken,
		DeviceName:  meta.DeviceName,
		UserAgent:   meta.UserAgent,
		IPAddress:   meta.IPAddress,
		TrustedAt:   now,
		LastUsedAt:  now,
	}

	if err := s.deviceRepo.Create(ctx, device); err != nil {
		// A concurrent trust for the same token can win the insert; the
		// composite unique index rejects ours, which still means "trusted".
		if _, findErr := s.deviceRepo.Find(ctx, userID, deviceToken); findErr == nil {
			return domain.ErrDeviceAlreadyTrusted
		}
		return fmt.Errorf("failed to trust device: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.DeviceTrustedEvent, userID).WithEmail(user.Email).WithMetadata("device_name", meta.DeviceName))

	if user.Phone != "" {
		message := fmt.Sprintf("A new device %q was added to your trusted devices. If this wasn't you, review your account settings.", meta.DeviceName)
		if err := s.notifySvc.SendSMS(user.Phone, message); err != nil {
			// The device is already trusted at this point; a failed alert
			// must not undo that.
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.DeviceTrustedEvent, userID).WithError(err))
		}
	}

	return nil
}

// Revoke implements domain.DeviceService. Revoking an absent token is a
// no-op, not an error.
func (s *DeviceServiceImpl) Revoke(ctx context.Context, userID uint, deviceToken string) error {
	if err := s.deviceRepo.Delete(ctx, userID, deviceToken); err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	return s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.DeviceRevokedEvent, userID))
}

// SetFeatureEnabled implements domain.DeviceService. Toggling the flag leaves
// the stored device set untouched.
func (s *DeviceServiceImpl) SetFeatureEnabled(ctx context.Context, userID uint, enabled bool) error {
	if err := s.userRepo.SetDeviceAuthEnabled(ctx, userID, enabled); err != nil {
		return err
	}
	return s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.DeviceAuthToggleEvent, userID).WithMetadata("enabled", enabled))
}

// ListDevices implements domain.DeviceService
func (s *DeviceServiceImpl) ListDevices(ctx context.Context, userID uint) ([]domain.TrustedDevice, error) {
	return s.deviceRepo.ListByUser(ctx, userID)
}
