package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Dylansm37/guardfile/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&DBUser{}, &DBTrustedDevice{}, &DBPasskeyCredential{}))
	return db
}

func TestDeviceRepository_UniquePerUser(t *testing.T) {
	repo := NewDeviceRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now()

	device := &domain.TrustedDevice{
		UserID:      1,
		DeviceToken: "device-abc",
		DeviceName:  "laptop",
		TrustedAt:   now,
		LastUsedAt:  now,
	}
	require.NoError(t, repo.Create(ctx, device))

	// Same token for the same user violates the composite index.
	dup := &domain.TrustedDevice{UserID: 1, DeviceToken: "device-abc", TrustedAt: now, LastUsedAt: now}
	require.Error(t, repo.Create(ctx, dup))

	// Same token under a different account is a different device.
	other := &domain.TrustedDevice{UserID: 2, DeviceToken: "device-abc", TrustedAt: now, LastUsedAt: now}
	require.NoError(t, repo.Create(ctx, other))
}

func TestDeviceRepository_TouchLastUsed(t *testing.T) {
	repo := NewDeviceRepository(openTestDB(t))
	ctx := context.Background()
	trustedAt := time.Now().Add(-time.Hour)

	require.NoError(t, repo.Create(ctx, &domain.TrustedDevice{
		UserID:      1,
		DeviceToken: "device-abc",
		TrustedAt:   trustedAt,
		LastUsedAt:  trustedAt,
	}))

	bumpedAt := time.Now()
	hit, err := repo.TouchLastUsed(ctx, 1, "device-abc", bumpedAt)
	require.NoError(t, err)
	require.True(t, hit)

	device, err := repo.Find(ctx, 1, "device-abc")
	require.NoError(t, err)
	require.WithinDuration(t, bumpedAt, device.LastUsedAt, time.Second)

	// An unknown token reports no match and changes nothing.
	hit, err = repo.TouchLastUsed(ctx, 1, "never-seen", time.Now())
	require.NoError(t, err)
	require.False(t, hit)
}

func TestDeviceRepository_DeleteIsIdempotent(t *testing.T) {
	repo := NewDeviceRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &domain.TrustedDevice{
		UserID: 1, DeviceToken: "device-abc", TrustedAt: now, LastUsedAt: now,
	}))

	require.NoError(t, repo.Delete(ctx, 1, "device-abc"))
	_, err := repo.Find(ctx, 1, "device-abc")
	require.ErrorIs(t, err, domain.ErrDeviceNotFound)

	// Second delete of the same token still succeeds.
	require.NoError(t, repo.Delete(ctx, 1, "device-abc"))
}

func TestCredentialRepository_AdvanceCounter(t *testing.T) {
	repo := NewCredentialRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &domain.PasskeyCredential{
		UserID:       1,
		CredentialID: "cred-1",
		Credential:   `{"sign_count":5}`,
		SignCount:    5,
		CreatedAt:    now,
	}))

	// Equal counter must not advance; the strict check treats it as a replay.
	advanced, err := repo.AdvanceCounter(ctx, "cred-1", 5, `{"sign_count":5}`, now)
	require.NoError(t, err)
	require.False(t, advanced)

	// Lower counter must not advance either.
	advanced, err = repo.AdvanceCounter(ctx, "cred-1", 3, `{"sign_count":3}`, now)
	require.NoError(t, err)
	require.False(t, advanced)

	advanced, err = repo.AdvanceCounter(ctx, "cred-1", 6, `{"sign_count":6}`, now)
	require.NoError(t, err)
	require.True(t, advanced)

	cred, err := repo.FindByCredentialID(ctx, "cred-1")
	require.NoError(t, err)
	require.Equal(t, uint32(6), cred.SignCount)
	require.Equal(t, `{"sign_count":6}`, cred.Credential)

	// Replaying the now-stored counter fails again.
	advanced, err = repo.AdvanceCounter(ctx, "cred-1", 6, `{"sign_count":6}`, now)
	require.NoError(t, err)
	require.False(t, advanced)
}

func TestCredentialRepository_FindUnknown(t *testing.T) {
	repo := NewCredentialRepository(openTestDB(t))

	_, err := repo.FindByCredentialID(context.Background(), "never-registered")
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestCredentialRepository_ListByUser(t *testing.T) {
	repo := NewCredentialRepository(openTestDB(t))
	ctx := context.Background()

	first := &domain.PasskeyCredential{UserID: 1, CredentialID: "cred-1", CreatedAt: time.Now().Add(-time.Hour)}
	second := &domain.PasskeyCredential{UserID: 1, CredentialID: "cred-2", CreatedAt: time.Now()}
	other := &domain.PasskeyCredential{UserID: 2, CredentialID: "cred-3", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	creds, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	require.Equal(t, "cred-1", creds[0].CredentialID)
	require.Equal(t, "cred-2", creds[1].CredentialID)
}

func TestUserRepository_UpdatePreservesCreatedAt(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	user := &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         "user",
		IsActive:     true,
	}
	require.NoError(t, repo.Create(ctx, user))

	created, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, created.CreatedAt.IsZero())

	created.Phone = "+15551234567"
	created.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, created))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "+15551234567", found.Phone)
	require.WithinDuration(t, created.CreatedAt, found.CreatedAt, time.Second)
	require.False(t, found.CreatedAt.IsZero())
}

func TestUserRepository_SetDeviceAuthEnabled(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	user := &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         "user",
		IsActive:     true,
	}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.SetDeviceAuthEnabled(ctx, user.ID, true))
	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found.DeviceAuthEnabled)

	require.NoError(t, repo.SetDeviceAuthEnabled(ctx, user.ID, false))
	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, found.DeviceAuthEnabled)
}
