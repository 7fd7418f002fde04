package domain

import (
	"context"
	"encoding/json"
	"time"
)

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByResetToken(ctx context.Context, token string) (*User, error)
	Update(ctx context.Context, user *User) error
	SetDeviceAuthEnabled(ctx context.Context, userID uint, enabled bool) error
}

// DeviceRepository defines trusted-device data access operations
type DeviceRepository interface {
	Create(ctx context.Context, device *TrustedDevice) error
	Find(ctx context.Context, userID uint, deviceToken string) (*TrustedDevice, error)
	ListByUser(ctx context.Context, userID uint) ([]TrustedDevice, error)
	// TouchLastUsed bumps last_used_at for a matching device and reports
	// whether a record matched.
	TouchLastUsed(ctx context.Context, userID uint, deviceToken string, at time.Time) (bool, error)
	Delete(ctx context.Context, userID uint, deviceToken string) error
}

// CredentialRepository defines passkey credential data access operations
type CredentialRepository interface {
	Create(ctx context.Context, cred *PasskeyCredential) error
	FindByCredentialID(ctx context.Context, credentialID string) (*PasskeyCredential, error)
	ListByUser(ctx context.Context, userID uint) ([]PasskeyCredential, error)
	// AdvanceCounter moves the stored sign counter to reported, but only if
	// reported is strictly greater than the stored value. It reports whether
	// the advance happened; false means a replayed or non-increasing counter.
	AdvanceCounter(ctx context.Context, credentialID string, reported uint32, credentialJSON string, at time.Time) (bool, error)
}

// ChallengeRepository holds at most one live ceremony challenge per account.
type ChallengeRepository interface {
	// Put overwrites any prior live challenge for the account.
	Put(ctx context.Context, challenge *Challenge) error
	// Consume atomically removes and returns the live challenge. Missing or
	// purpose-mismatched challenges surface as ErrChallengeMismatch.
	Consume(ctx context.Context, userID uint, purpose ChallengePurpose) (*Challenge, error)
}

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, token string) (*AuthResult, error)
	Logout(ctx context.Context, userID uint) error
	GetUserProfile(ctx context.Context, userID uint) (*User, error)
	UpdatePhone(ctx context.Context, userID uint, phone string) error
	UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// DeviceService defines trusted-device business logic
type DeviceService interface {
	IsTrusted(ctx context.Context, userID uint, deviceToken string) (*DeviceCheck, error)
	Trust(ctx context.Context, userID uint, deviceToken string, meta DeviceMetadata) error
	Revoke(ctx context.Context, userID uint, deviceToken string) error
	SetFeatureEnabled(ctx context.Context, userID uint, enabled bool) error
	ListDevices(ctx context.Context, userID uint) ([]TrustedDevice, error)
}

// PasskeyService defines the public-key credential ceremonies
type PasskeyService interface {
	BeginRegistration(ctx context.Context, userID uint) (json.RawMessage, error)
	FinishRegistration(ctx context.Context, userID uint, response []byte) (*PasskeyCredential, error)
	BeginAuthentication(ctx context.Context, userID uint) (json.RawMessage, error)
	FinishAuthentication(ctx context.Context, userID uint, response []byte) (*AuthResult, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines session token operations
type TokenService interface {
	Mint(userID uint, username string) (token string, expiresAt time.Time, err error)
	Verify(token string) (*TokenClaims, error)
	TTL() time.Duration
}

// TokenClaims represents verified session token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
