package mocks

import (
	"context"

	"github.com/Dylansm37/guardfile/domain"
)

// MockChallengeRepository implements domain.ChallengeRepository interface for testing
type MockChallengeRepository struct {
	PutFunc     func(ctx context.Context, challenge *domain.Challenge) error
	ConsumeFunc func(ctx context.Context, userID uint, purpose domain.ChallengePurpose) (*domain.Challenge, error)
}

// NewMockChallengeRepository creates a new MockChallengeRepository with default behaviors
func NewMockChallengeRepository() *MockChallengeRepository {
	return &MockChallengeRepository{}
}

// Put stores the account's live challenge
func (m *MockChallengeRepository) Put(ctx context.Context, challenge *domain.Challenge) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, challenge)
	}
	// Default behavior: success
	return nil
}

// Consume removes and returns the live challenge
func (m *MockChallengeRepository) Consume(ctx context.Context, userID uint, purpose domain.ChallengePurpose) (*domain.Challenge, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, userID, purpose)
	}
	// Default behavior: nothing stored
	return nil, domain.ErrChallengeMismatch
}
