package domain

import "time"

// User represents an account in the system
type User struct {
	ID                uint
	Username          string
	Email             string
	Phone             string
	PasswordHash      string `gorm:"column:password"`
	Role              string
	IsActive          bool
	DeviceAuthEnabled bool
	ResetToken        string
	ResetTokenExpires time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TrustedDevice is a device token allow-listed for an account. The token is a
// client-generated bearer secret, unique within the owning account only.
type TrustedDevice struct {
	ID          uint
	UserID      uint
	DeviceToken string
	DeviceName  string
	UserAgent   string
	IPAddress   string
	TrustedAt   time.Time
	LastUsedAt  time.Time
}

// PasskeyCredential is a public-key credential bound to an account.
// CredentialID is globally unique: during authentication the credential is the
// lookup key, not the account. SignCount must only ever move forward.
type PasskeyCredential struct {
	ID           uint
	UserID       uint
	CredentialID string
	Credential   string // webauthn credential record, JSON
	SignCount    uint32
	Transports   string
	CreatedAt    time.Time
	LastUsedAt   time.Time
}

// ChallengePurpose distinguishes registration from authentication ceremonies.
type ChallengePurpose string

const (
	ChallengeRegister     ChallengePurpose = "register"
	ChallengeAuthenticate ChallengePurpose = "authenticate"
)

// Challenge is the single live ceremony challenge for an account.
type Challenge struct {
	UserID    uint             `json:"user_id"`
	Purpose   ChallengePurpose `json:"purpose"`
	Session   []byte           `json:"session"` // webauthn session data, JSON
	CreatedAt time.Time        `json:"created_at"`
}

// AuthRequest represents authentication credentials
type AuthRequest struct {
	Email    string
	Password string
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
	ExpiresIn int64
}

// DeviceCheck is the outcome of a trusted-device lookup. When the account has
// device auth disabled every device passes; FeatureEnabled tells the caller
// which case it got.
type DeviceCheck struct {
	Trusted        bool
	FeatureEnabled bool
}

// DeviceMetadata carries the client-supplied description of a device being trusted.
type DeviceMetadata struct {
	DeviceName string
	UserAgent  string
	IPAddress  string
}
