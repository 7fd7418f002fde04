package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Authentication events
	UserLoginEvent        AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent AuditEventType = "USER_LOGIN_FAILED"
	UserRegistrationEvent AuditEventType = "USER_REGISTERED"
	UserLogoutEvent       AuditEventType = "USER_LOGOUT"
	TokenRefreshEvent     AuditEventType = "TOKEN_REFRESHED"
	TokenRejectedEvent    AuditEventType = "TOKEN_REJECTED"
	PasswordResetEvent    AuditEventType = "PASSWORD_RESET"

	// Device trust events
	DeviceTrustedEvent    AuditEventType = "DEVICE_TRUSTED"
	DeviceRevokedEvent    AuditEventType = "DEVICE_REVOKED"
	DeviceCheckEvent      AuditEventType = "DEVICE_CHECKED"
	DeviceAuthToggleEvent AuditEventType = "DEVICE_AUTH_TOGGLED"

	// Passkey ceremony events
	PasskeyRegisteredEvent    AuditEventType = "PASSKEY_REGISTERED"
	PasskeyAuthenticatedEvent AuditEventType = "PASSKEY_AUTHENTICATED"
	ChallengeMismatchEvent    AuditEventType = "CHALLENGE_MISMATCH"
	CounterReplayEvent        AuditEventType = "COUNTER_REPLAY_DETECTED"

	// Authorization events
	AccessGrantedEvent AuditEventType = "ACCESS_GRANTED"
	AccessDeniedEvent  AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a security-relevant event that occurred in the system
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	UserID    uint                   `json:"user_id"`
	Email     string                 `json:"email,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// AuditLogger defines operations for audit logging
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent) error
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID uint) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
