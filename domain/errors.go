package domain

import "errors"

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserInactive       = errors.New("user account is inactive")
)

// Token errors. Callers outside the service layer must not expose which of
// these occurred; the distinction exists for server-side logging only.
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Device trust errors
var (
	ErrDeviceNotFound       = errors.New("device not found")
	ErrDeviceAlreadyTrusted = errors.New("device already trusted")
)

// Passkey ceremony errors
var (
	ErrChallengeMismatch  = errors.New("challenge mismatch")
	ErrCounterReplay      = errors.New("credential counter replay")
	ErrCredentialNotFound = errors.New("credential not found")
)

// Password reset errors
var (
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)

// Authorization errors
var (
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrInsufficientRole = errors.New("insufficient role permissions")
	ErrResourceNotFound = errors.New("resource not found")
)
