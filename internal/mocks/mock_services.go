package mocks

import (
	"context"
	"time"

	"github.com/Dylansm37/guardfile/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	MintFunc   func(userID uint, username string) (string, time.Time, error)
	VerifyFunc func(token string) (*domain.TokenClaims, error)
	TTLFunc    func() time.Duration
}

// Mint mints a session token
func (m *MockTokenService) Mint(userID uint, username string) (string, time.Time, error) {
	if m.MintFunc != nil {
		return m.MintFunc(userID, username)
	}
	// Default behavior: fixed token, ten minutes out
	return "test-token", time.Now().Add(10 * time.Minute), nil
}

// Verify verifies a session token
func (m *MockTokenService) Verify(token string) (*domain.TokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	// Default behavior: rejected
	return nil, domain.ErrTokenInvalid
}

// TTL returns the token validity window
func (m *MockTokenService) TTL() time.Duration {
	if m.TTLFunc != nil {
		return m.TTLFunc()
	}
	return 10 * time.Minute
}

// MockPasswordService implements domain.PasswordService interface for testing
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool
}

// Hash hashes a password
func (m *MockPasswordService) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	// Default behavior: marked hash
	return "hashed:" + password, nil
}

// Verify checks a password against a hash
func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	// Default behavior: match against the marked hash
	return hashedPassword == "hashed:"+password
}

// MockNotificationService implements domain.NotificationService interface for testing
type MockNotificationService struct {
	SendSMSFunc   func(to, message string) error
	SendEmailFunc func(to, subject, body string) error

	SentSMS    []string
	SentEmails []string
}

// SendSMS records an SMS
func (m *MockNotificationService) SendSMS(to, message string) error {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(to, message)
	}
	m.SentSMS = append(m.SentSMS, to)
	return nil
}

// SendEmail records an email
func (m *MockNotificationService) SendEmail(to, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(to, subject, body)
	}
	m.SentEmails = append(m.SentEmails, to)
	return nil
}

// MockAuditLogger implements domain.AuditLogger interface for testing
type MockAuditLogger struct {
	LogEventFunc func(ctx context.Context, event *domain.AuditEvent) error

	Events []*domain.AuditEvent
}

// LogEvent records the event
func (m *MockAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if m.LogEventFunc != nil {
		return m.LogEventFunc(ctx, event)
	}
	m.Events = append(m.Events, event)
	return nil
}
