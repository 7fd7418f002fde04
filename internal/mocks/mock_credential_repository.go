package mocks

import (
	"context"
	"time"

	"github.com/Dylansm37/guardfile/domain"
)

// MockCredentialRepository implements domain.CredentialRepository interface for testing
type MockCredentialRepository struct {
	CreateFunc             func(ctx context.Context, cred *domain.PasskeyCredential) error
	FindByCredentialIDFunc func(ctx context.Context, credentialID string) (*domain.PasskeyCredential, error)
	ListByUserFunc         func(ctx context.Context, userID uint) ([]domain.PasskeyCredential, error)
	AdvanceCounterFunc     func(ctx context.Context, credentialID string, reported uint32, credentialJSON string, at time.Time) (bool, error)
}

// NewMockCredentialRepository creates a new MockCredentialRepository with default behaviors
func NewMockCredentialRepository() *MockCredentialRepository {
	return &MockCredentialRepository{}
}

// Create stores a credential
func (m *MockCredentialRepository) Create(ctx context.Context, cred *domain.PasskeyCredential) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, cred)
	}
	// Default behavior: success
	return nil
}

// FindByCredentialID looks up a credential
func (m *MockCredentialRepository) FindByCredentialID(ctx context.Context, credentialID string) (*domain.PasskeyCredential, error) {
	if m.FindByCredentialIDFunc != nil {
		return m.FindByCredentialIDFunc(ctx, credentialID)
	}
	// Default behavior: not found
	return nil, domain.ErrCredentialNotFound
}

// ListByUser lists an account's credentials
func (m *MockCredentialRepository) ListByUser(ctx context.Context, userID uint) ([]domain.PasskeyCredential, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	// Default behavior: empty
	return []domain.PasskeyCredential{}, nil
}

// AdvanceCounter conditionally moves the sign counter forward
func (m *MockCredentialRepository) AdvanceCounter(ctx context.Context, credentialID string, reported uint32, credentialJSON string, at time.Time) (bool, error) {
	if m.AdvanceCounterFunc != nil {
		return m.AdvanceCounterFunc(ctx, credentialID, reported, credentialJSON, at)
	}
	// Default behavior: advanced
	return true, nil
}
