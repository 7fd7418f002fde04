package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Dylansm37/guardfile/domain"
)

// CredentialRepositoryImpl implements domain.CredentialRepository using GORM
type CredentialRepositoryImpl struct {
	db *gorm.DB
}

// DBPasskeyCredential represents the database model for PasskeyCredential.
// The credential ID is the lookup key during authentication, so it is unique
// across all accounts, not just within one.
type DBPasskeyCredential struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"index"`
	CredentialID string `gorm:"uniqueIndex;size:255"`
	Credential   string `gorm:"type:text"`
	SignCount    uint32
	Transports   string `gorm:"size:255"`
	CreatedAt    time.Time
	LastUsedAt   time.Time
}

// TableName returns the table name for GORM
func (DBPasskeyCredential) TableName() string {
	return "passkey_credentials"
}

// NewCredentialRepository creates a new passkey credential repository
func NewCredentialRepository(db *gorm.DB) domain.CredentialRepository {
	return &CredentialRepositoryImpl{db: db}
}

// Create implements domain.CredentialRepository
func (r *CredentialRepositoryImpl) Create(ctx context.Context, cred *domain.PasskeyCredential) error {
	dbCred := &DBPasskeyCredential{
		UserID:       cred.UserID,
		CredentialID: cred.CredentialID,
		Credential:   cred.Credential,
		SignCount:    cred.SignCount,
		Transports:   cred.Transports,
		CreatedAt:    cred.CreatedAt,
		LastUsedAt:   cred.LastUsedAt,
	}
	if err := r.db.WithContext(ctx).Create(dbCred).Error; err != nil {
		return err
	}
	cred.ID = dbCred.ID
	return nil
}

// FindByCredentialID implements domain.CredentialRepository
func (r *CredentialRepositoryImpl) FindByCredentialID(ctx context.Context, credentialID string) (*domain.PasskeyCredential, error) {
	var dbCred DBPasskeyCredential
	err := r.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&dbCred).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbCred), nil
}

// ListByUser implements domain.CredentialRepository
func (r *CredentialRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]domain.PasskeyCredential, error) {
	var dbCreds []DBPasskeyCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&dbCreds).Error
	if err != nil {
		return nil, err
	}

	creds := make([]domain.PasskeyCredential, 0, len(dbCreds))
	for i := range dbCreds {
		creds = append(creds, *r.dbToDomain(&dbCreds[i]))
	}
	return creds, nil
}

// AdvanceCounter implements domain.CredentialRepository. The sign_count guard
// in the WHERE clause is what linearizes concurrent authentications: of two
// requests reporting the same counter, only one can see rows affected.
func (r *CredentialRepositoryImpl) AdvanceCounter(ctx context.Context, credentialID string, reported uint32, credentialJSON string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&DBPasskeyCredential{}).
		Where("credential_id = ? AND sign_count < ?", credentialID, reported).
		Updates(map[string]interface{}{
			"sign_count":   reported,
			"credential":   credentialJSON,
			"last_used_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *CredentialRepositoryImpl) dbToDomain(dbCred *DBPasskeyCredential) *domain.PasskeyCredential {
	return &domain.PasskeyCredential{
		ID:           dbCred.ID,
		UserID:       dbCred.UserID,
		CredentialID: dbCred.CredentialID,
		Credential:   dbCred.Credential,
		SignCount:    dbCred.SignCount,
		Transports:   dbCred.Transports,
		CreatedAt:    dbCred.CreatedAt,
		LastUsedAt:   dbCred.LastUsedAt,
	}
}
