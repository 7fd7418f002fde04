package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dylansm37/guardfile/domain"
)

// ChallengeRepositoryImpl implements domain.ChallengeRepository using Redis.
// One key per account holds the single live challenge; SET overwrites any
// prior ceremony and GETDEL makes consumption single-use and atomic, so two
// concurrent finishes for the same account cannot both succeed.
type ChallengeRepositoryImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(client *redis.Client, ttl time.Duration) domain.ChallengeRepository {
	return &ChallengeRepositoryImpl{
		client: client,
		prefix: "passkey:chal:",
		ttl:    ttl,
	}
}

func (r *ChallengeRepositoryImpl) key(userID uint) string {
	return fmt.Sprintf("%s%d", r.prefix, userID)
}

// Put implements domain.ChallengeRepository
func (r *ChallengeRepositoryImpl) Put(ctx context.Context, challenge *domain.Challenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	return r.client.Set(ctx, r.key(challenge.UserID), data, r.ttl).Err()
}

// Consume implements domain.ChallengeRepository. A missing slot and a
// purpose mismatch are indistinguishable to the caller; a mismatched
// challenge is dropped either way, so a failed ceremony always resets the
// account to the no-challenge state.
func (r *ChallengeRepositoryImpl) Consume(ctx context.Context, userID uint, purpose domain.ChallengePurpose) (*domain.Challenge, error) {
	data, err := r.client.GetDel(ctx, r.key(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrChallengeMismatch
		}
		return nil, err
	}

	var challenge domain.Challenge
	if err := json.Unmarshal([]byte(data), &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	if challenge.Purpose != purpose {
		return nil, domain.ErrChallengeMismatch
	}

	return &challenge, nil
}
