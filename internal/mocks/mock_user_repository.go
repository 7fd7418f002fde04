package mocks

import (
	"context"

	"github.com/Dylansm37/guardfile/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc               func(ctx context.Context, user *domain.User) error
	FindByEmailFunc          func(ctx context.Context, email string) (*domain.User, error)
	FindByUsernameFunc       func(ctx context.Context, username string) (*domain.User, error)
	FindByIDFunc             func(ctx context.Context, id uint) (*domain.User, error)
	FindByResetTokenFunc     func(ctx context.Context, token string) (*domain.User, error)
	UpdateFunc               func(ctx context.Context, user *domain.User) error
	SetDeviceAuthEnabledFunc func(ctx context.Context, userID uint, enabled bool) error
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	// Default behavior: success
	return nil
}

// FindByEmail finds a user by email
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByUsername finds a user by username
func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByResetToken finds a user by reset token
func (m *MockUserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if m.FindByResetTokenFunc != nil {
		return m.FindByResetTokenFunc(ctx, token)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// Update updates an existing user
func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	// Default behavior: success
	return nil
}

// SetDeviceAuthEnabled flips the device-auth flag
func (m *MockUserRepository) SetDeviceAuthEnabled(ctx context.Context, userID uint, enabled bool) error {
	if m.SetDeviceAuthEnabledFunc != nil {
		return m.SetDeviceAuthEnabledFunc(ctx, userID, enabled)
	}
	// Default behavior: success
	return nil
}
