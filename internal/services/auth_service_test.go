package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dylansm37/guardfile/domain"
	"github.com/Dylansm37/guardfile/internal/mocks"
)

func validUser() *domain.User {
	return &domain.User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed:secret",
		Role:         "user",
		IsActive:     true,
	}
}

func newAuthServiceForTest(userRepo *mocks.MockUserRepository, tokenSvc *mocks.MockTokenService, audit *mocks.MockAuditLogger) domain.AuthService {
	return NewAuthService(
		userRepo,
		&mocks.MockPasswordService{},
		tokenSvc,
		&mocks.MockNotificationService{},
		audit,
		AuthConfig{ResetTokenTTL: time.Hour},
	)
}

func TestAuthServiceImpl_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMocks    func(*mocks.MockUserRepository)
		expectedError error
		expectedEvent domain.AuditEventType
	}{
		{
			name:     "successful login",
			email:    "alice@example.com",
			password: "secret",
			setupMocks: func(userRepo *mocks.MockUserRepository) {
				userRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					return validUser(), nil
				}
			},
			expectedError: nil,
			expectedEvent: domain.UserLoginEvent,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "secret",
			setupMocks: func(userRepo *mocks.MockUserRepository) {
				// Default FindByEmail: not found
			},
			expectedError: domain.ErrInvalidCredentials,
			expectedEvent: domain.UserLoginFailureEvent,
		},
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "not-the-password",
			setupMocks: func(userRepo *mocks.MockUserRepository) {
				userRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					return validUser(), nil
				}
			},
			expectedError: domain.ErrInvalidCredentials,
			expectedEvent: domain.UserLoginFailureEvent,
		},
		{
			name:     "inactive account",
			email:    "alice@example.com",
			password: "secret",
			setupMocks: func(userRepo *mocks.MockUserRepository) {
				userRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					user := validUser()
					user.IsActive = false
					return user, nil
				}
			},
			expectedError: domain.ErrUserInactive,
		},
		{
			// Without the right password an inactive account must look like
			// any other failed login, or the status would leak the account.
			name:     "inactive account with wrong password",
			email:    "alice@example.com",
			password: "not-the-password",
			setupMocks: func(userRepo *mocks.MockUserRepository) {
				userRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
					user := validUser()
					user.IsActive = false
					return user, nil
				}
			},
			expectedError: domain.ErrInvalidCredentials,
			expectedEvent: domain.UserLoginFailureEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := mocks.NewMockUserRepository()
			audit := &mocks.MockAuditLogger{}
			tt.setupMocks(userRepo)

			svc := newAuthServiceForTest(userRepo, &mocks.MockTokenService{}, audit)
			result, err := svc.Login(context.Background(), tt.email, tt.password)

			if err != tt.expectedError {
				t.Fatalf("expected error %v, got %v", tt.expectedError, err)
			}

			if tt.expectedError == nil {
				if result == nil || result.Token == "" {
					t.Fatal("expected a minted token")
				}
				if result.User.ID != 1 {
					t.Errorf("expected user 1, got %d", result.User.ID)
				}
				if result.ExpiresIn <= 0 {
					t.Errorf("expected positive expires_in, got %d", result.ExpiresIn)
				}
			} else if result != nil {
				t.Error("expected nil result on failure")
			}

			if tt.expectedEvent != "" {
				if len(audit.Events) == 0 {
					t.Fatal("expected an audit event")
				}
				if got := audit.Events[len(audit.Events)-1].EventType; got != tt.expectedEvent {
					t.Errorf("expected audit event %s, got %s", tt.expectedEvent, got)
				}
			}
		})
	}
}

// The two failure modes a caller could use to probe for accounts must be the
// same error value, not merely the same message.
func TestAuthServiceImpl_LoginFailuresAreIndistinguishable(t *testing.T) {
	unknownRepo := mocks.NewMockUserRepository()

	knownRepo := mocks.NewMockUserRepository()
	knownRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
		return validUser(), nil
	}

	svcUnknown := newAuthServiceForTest(unknownRepo, &mocks.MockTokenService{}, &mocks.MockAuditLogger{})
	svcKnown := newAuthServiceForTest(knownRepo, &mocks.MockTokenService{}, &mocks.MockAuditLogger{})

	_, errUnknown := svcUnknown.Login(context.Background(), "nobody@example.com", "whatever")
	_, errWrongPass := svcKnown.Login(context.Background(), "alice@example.com", "wrong")

	if errUnknown != errWrongPass {
		t.Errorf("expected identical errors, got %v and %v", errUnknown, errWrongPass)
	}
}

func TestAuthServiceImpl_Refresh(t *testing.T) {
	t.Run("valid token gets a fresh full window", func(t *testing.T) {
		tokenSvc := &mocks.MockTokenService{}
		tokenSvc.VerifyFunc = func(token string) (*domain.TokenClaims, error) {
			return &domain.TokenClaims{UserID: 1, Username: "alice"}, nil
		}
		newExpiry := time.Now().Add(10 * time.Minute)
		tokenSvc.MintFunc = func(userID uint, username string) (string, time.Time, error) {
			return "fresh-token", newExpiry, nil
		}

		audit := &mocks.MockAuditLogger{}
		svc := newAuthServiceForTest(mocks.NewMockUserRepository(), tokenSvc, audit)

		result, err := svc.Refresh(context.Background(), "old-token")
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if result.Token != "fresh-token" {
			t.Errorf("expected fresh-token, got %s", result.Token)
		}
		if !result.ExpiresAt.Equal(newExpiry) {
			t.Errorf("expected expiry %v, got %v", newExpiry, result.ExpiresAt)
		}
		if len(audit.Events) != 1 || audit.Events[0].EventType != domain.TokenRefreshEvent {
			t.Error("expected a TOKEN_REFRESHED audit event")
		}
	})

	t.Run("invalid token collapses to generic rejection", func(t *testing.T) {
		tokenSvc := &mocks.MockTokenService{}
		tokenSvc.VerifyFunc = func(token string) (*domain.TokenClaims, error) {
			return nil, domain.ErrTokenExpired
		}

		audit := &mocks.MockAuditLogger{}
		svc := newAuthServiceForTest(mocks.NewMockUserRepository(), tokenSvc, audit)

		if _, err := svc.Refresh(context.Background(), "stale"); err != domain.ErrTokenInvalid {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
		if len(audit.Events) != 1 || audit.Events[0].EventType != domain.TokenRejectedEvent {
			t.Error("expected a TOKEN_REJECTED audit event")
		}
	})
}

func TestAuthServiceImpl_ForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	notify := &mocks.MockNotificationService{}
	svc := NewAuthService(
		mocks.NewMockUserRepository(),
		&mocks.MockPasswordService{},
		&mocks.MockTokenService{},
		notify,
		&mocks.MockAuditLogger{},
		AuthConfig{ResetTokenTTL: time.Hour},
	)

	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if len(notify.SentEmails) != 0 {
		t.Error("expected no email for unknown account")
	}
}

func TestAuthServiceImpl_ResetPasswordExpiredToken(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	userRepo.FindByResetTokenFunc = func(ctx context.Context, token string) (*domain.User, error) {
		user := validUser()
		user.ResetToken = token
		user.ResetTokenExpires = time.Now().Add(-time.Minute)
		return user, nil
	}

	svc := newAuthServiceForTest(userRepo, &mocks.MockTokenService{}, &mocks.MockAuditLogger{})

	if err := svc.ResetPassword(context.Background(), "stale-token", "newpass123"); err != domain.ErrResetTokenInvalid {
		t.Errorf("expected ErrResetTokenInvalid, got %v", err)
	}
}
