package mocks

import (
	"context"
	"time"

	"github.com/Dylansm37/guardfile/domain"
)

// MockDeviceRepository implements domain.DeviceRepository interface for testing
type MockDeviceRepository struct {
	CreateFunc        func(ctx context.Context, device *domain.TrustedDevice) error
	FindFunc          func(ctx context.Context, userID uint, deviceToken string) (*domain.TrustedDevice, error)
	ListByUserFunc    func(ctx context.Context, userID uint) ([]domain.TrustedDevice, error)
	TouchLastUsedFunc func(ctx context.Context, userID uint, deviceToken string, at time.Time) (bool, error)
	DeleteFunc        func(ctx context.Context, userID uint, deviceToken string) error
}

// NewMockDeviceRepository creates a new MockDeviceRepository with default behaviors
func NewMockDeviceRepository() *MockDeviceRepository {
	return &MockDeviceRepository{}
}

// Create stores a trusted device
func (m *MockDeviceRepository) Create(ctx context.Context, device *domain.TrustedDevice) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, device)
	}
	// Default behavior: success
	return nil
}

// Find looks up one device
func (m *MockDeviceRepository) Find(ctx context.Context, userID uint, deviceToken string) (*domain.TrustedDevice, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, userID, deviceToken)
	}
	// Default behavior: not found
	return nil, domain.ErrDeviceNotFound
}

// ListByUser lists an account's devices
func (m *MockDeviceRepository) ListByUser(ctx context.Context, userID uint) ([]domain.TrustedDevice, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	// Default behavior: empty
	return []domain.TrustedDevice{}, nil
}

// TouchLastUsed bumps last_used_at on a matching device
func (m *MockDeviceRepository) TouchLastUsed(ctx context.Context, userID uint, deviceToken string, at time.Time) (bool, error) {
	if m.TouchLastUsedFunc != nil {
		return m.TouchLastUsedFunc(ctx, userID, deviceToken, at)
	}
	// Default behavior: no match
	return false, nil
}

// Delete removes a device
func (m *MockDeviceRepository) Delete(ctx context.Context, userID uint, deviceToken string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, deviceToken)
	}
	// Default behavior: success
	return nil
}
