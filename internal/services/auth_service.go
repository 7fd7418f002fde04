package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Dylansm37/guardfile/domain"
)

// AuthConfig carries the tunables of the authentication service
type AuthConfig struct {
	ResetTokenTTL time.Duration
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	notifySvc   domain.NotificationService
	audit       domain.AuditLogger
	config      AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	notifySvc domain.NotificationService,
	audit domain.AuditLogger,
	config AuthConfig,
) domain.AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		notifySvc:   notifySvc,
		audit:       audit,
		config:      config,
	}
}

// Register implements domain.AuthService
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, domain.ErrUserAlreadyExists
	}
	if existing, err := s.userRepo.FindByUsername(ctx, username); err == nil && existing != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	hashedPassword, err := s.passwordSvc.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         "user",
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, user.ID).WithEmail(email))
	return user, nil
}

// Login implements domain.AuthService. Unknown email and wrong password are
// indistinguishable to the caller; the detailed cause only reaches the audit
// log.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, 0).WithEmail(email).WithError(err))
		return nil, domain.ErrInvalidCredentials
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, user.ID).WithEmail(email).WithError(domain.ErrInvalidCredentials))
		return nil, domain.ErrInvalidCredentials
	}

	// The inactive signal is only surfaced once the caller has proven the
	// password; before that it would reveal the account exists.
	if !user.IsActive {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, user.ID).WithEmail(email).WithError(domain.ErrUserInactive))
		return nil, domain.ErrUserInactive
	}

	token, expiresAt, err := s.tokenSvc.Mint(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.ID).WithEmail(email))

	return &domain.AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// Refresh implements domain.AuthService. A valid token buys a brand-new one
// with a fresh full TTL; the old token is not revoked and simply ages out.
func (s *AuthServiceImpl) Refresh(ctx context.Context, token string) (*domain.AuthResult, error) {
	claims, err := s.tokenSvc.Verify(token)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.TokenRejectedEvent, 0).WithError(err))
		return nil, domain.ErrTokenInvalid
	}

	newToken, expiresAt, err := s.tokenSvc.Mint(claims.UserID, claims.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.TokenRefreshEvent, claims.UserID))

	return &domain.AuthResult{
		Token:     newToken,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// Logout implements domain.AuthService. Sessions are stateless server-side;
// the client clears its stored credential and this only leaves an audit trail.
func (s *AuthServiceImpl) Logout(ctx context.Context, userID uint) error {
	return s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLogoutEvent, userID))
}

// GetUserProfile implements domain.AuthService
func (s *AuthServiceImpl) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdatePhone implements domain.AuthService
func (s *AuthServiceImpl) UpdatePhone(ctx context.Context, userID uint, phone string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Phone = phone
	user.UpdatedAt = time.Now()
	return s.userRepo.Update(ctx, user)
}

// UpdatePassword implements domain.AuthService
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.passwordSvc.Verify(user.PasswordHash, oldPassword) {
		return domain.ErrInvalidCredentials
	}

	hashedPassword, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hashedPassword
	user.UpdatedAt = time.Now()
	return s.userRepo.Update(ctx, user)
}

// ForgotPassword implements domain.AuthService. Unknown emails succeed
// silently so the endpoint cannot be used to enumerate accounts.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, 0).WithEmail(email).WithError(err))
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	user.ResetToken = token
	user.ResetTokenExpires = time.Now().Add(s.config.ResetTokenTTL)
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	body := fmt.Sprintf("Use this token to reset your password: %s. It expires in %d minutes.",
		token, int(s.config.ResetTokenTTL.Minutes()))
	return s.notifySvc.SendEmail(user.Email, "Password reset", body)
}

// ResetPassword implements domain.AuthService
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		return domain.ErrResetTokenInvalid
	}

	if time.Now().After(user.ResetTokenExpires) {
		return domain.ErrResetTokenInvalid
	}

	hashedPassword, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hashedPassword
	user.ResetToken = ""
	user.ResetTokenExpires = time.Time{}
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, user.ID).WithEmail(user.Email))
	return nil
}

// generateResetToken creates a cryptographically secure single-use token
func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
