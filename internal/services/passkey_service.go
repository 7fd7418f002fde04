package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/Dylansm37/guardfile/domain"
)

// WebAuthnProvider is the slice of the webauthn library the ceremonies need.
// *webauthn.WebAuthn satisfies it; tests substitute their own.
type WebAuthnProvider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidateLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

// CredentialParser parses browser ceremony responses
type CredentialParser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type defaultCredentialParser struct{}

func (defaultCredentialParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBody(bytes.NewReader(data))
}

func (defaultCredentialParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBody(bytes.NewReader(data))
}

// PasskeyServiceImpl implements domain.PasskeyService
type PasskeyServiceImpl struct {
	userRepo domain.UserRepository
	credRepo domain.CredentialRepository
	chalRepo domain.ChallengeRepository
	tokenSvc domain.TokenService
	audit    domain.AuditLogger
	webauthn WebAuthnProvider
	parser   CredentialParser
}

// NewPasskeyService creates a new passkey ceremony service
func NewPasskeyService(
	userRepo domain.UserRepository,
	credRepo domain.CredentialRepository,
	chalRepo domain.ChallengeRepository,
	tokenSvc domain.TokenService,
	audit domain.AuditLogger,
	provider WebAuthnProvider,
) domain.PasskeyService {
	return &PasskeyServiceImpl{
		userRepo: userRepo,
		credRepo: credRepo,
		chalRepo: chalRepo,
		tokenSvc: tokenSvc,
		audit:    audit,
		webauthn: provider,
		parser:   defaultCredentialParser{},
	}
}

// NewPasskeyServiceWithParser creates a passkey service with a custom
// response parser (for testing)
func NewPasskeyServiceWithParser(
	userRepo domain.UserRepository,
	credRepo domain.CredentialRepository,
	chalRepo domain.ChallengeRepository,
	tokenSvc domain.TokenService,
	audit domain.AuditLogger,
	provider WebAuthnProvider,
	parser CredentialParser,
) domain.PasskeyService {
	svc := NewPasskeyService(userRepo, credRepo, chalRepo, tokenSvc, audit, provider).(*PasskeyServiceImpl)
	svc.parser = parser
	return svc
}

// passkeyUser adapts an account and its stored credentials to webauthn.User
type passkeyUser struct {
	user        *domain.User
	credentials []webauthn.Credential
}

func (u *passkeyUser) WebAuthnID() []byte {
	return []byte(strconv.FormatUint(uint64(u.user.ID), 10))
}

func (u *passkeyUser) WebAuthnName() string {
	return u.user.Username
}

func (u *passkeyUser) WebAuthnDisplayName() string {
	return u.user.Username
}

func (u *passkeyUser) WebAuthnIcon() string {
	return ""
}

func (u *passkeyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

// BeginRegistration implements domain.PasskeyService. Issuing a challenge
// overwrites any prior live one, so at most one ceremony per account is in
// flight.
func (s *PasskeyServiceImpl) BeginRegistration(ctx context.Context, userID uint) (json.RawMessage, error) {
	pu, err := s.loadPasskeyUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var opts []webauthn.RegistrationOption
	if len(pu.credentials) > 0 {
		opts = append(opts, webauthn.WithExclusions(credentialDescriptors(pu.credentials)))
	}

	creation, session, err := s.webauthn.BeginRegistration(pu, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration: %w", err)
	}

	if err := s.storeChallenge(ctx, userID, domain.ChallengeRegister, session); err != nil {
		return nil, err
	}

	return json.Marshal(creation)
}

// FinishRegistration implements domain.PasskeyService. The challenge is
// consumed up front, success or not: a failed ceremony leaves the account
// with no live challenge and no extra credentials.
func (s *PasskeyServiceImpl) FinishRegistration(ctx context.Context, userID uint, response []byte) (*domain.PasskeyCredential, error) {
	session, err := s.consumeChallenge(ctx, userID, domain.ChallengeRegister)
	if err != nil {
		return nil, err
	}

	pu, err := s.loadPasskeyUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.ChallengeMismatchEvent, userID).WithError(err))
		return nil, domain.ErrChallengeMismatch
	}

	credential, err := s.webauthn.CreateCredential(pu, *session, parsed)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.ChallengeMismatchEvent, userID).WithError(err))
		return nil, domain.ErrChallengeMismatch
	}

	credentialJSON, err := json.Marshal(credential)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential: %w", err)
	}

	record := &domain.PasskeyCredential{
		UserID:       userID,
		CredentialID: encodeCredentialID(credential.ID),
		Credential:   string(credentialJSON),
		SignCount:    credential.Authenticator.SignCount,
		Transports:   joinTransports(credential.Transport),
		CreatedAt:    time.Now(),
	}

	if err := s.credRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasskeyRegisteredEvent, userID).WithMetadata("credential_id", record.CredentialID))
	return record, nil
}

// BeginAuthentication implements domain.PasskeyService
func (s *PasskeyServiceImpl) BeginAuthentication(ctx context.Context, userID uint) (json.RawMessage, error) {
	pu, err := s.loadPasskeyUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	assertion, session, err := s.webauthn.BeginLogin(pu)
	if err != nil {
		return nil, fmt.Errorf("failed to begin authentication: %w", err)
	}

	if err := s.storeChallenge(ctx, userID, domain.ChallengeAuthenticate, session); err != nil {
		return nil, err
	}

	return json.Marshal(assertion)
}

// FinishAuthentication implements domain.PasskeyService. The counter rule is
// strict: a reported counter not greater than the stored one fails closed
// with ErrCounterReplay even when the signature verifies, because a
// non-increasing counter is the one signal a cloned authenticator cannot
// forge.
func (s *PasskeyServiceImpl) FinishAuthentication(ctx context.Context, userID uint, response []byte) (*domain.AuthResult, error) {
	session, err := s.consumeChallenge(ctx, userID, domain.ChallengeAuthenticate)
	if err != nil {
		return nil, err
	}

	pu, err := s.loadPasskeyUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.ChallengeMismatchEvent, userID).WithError(err))
		return nil, domain.ErrChallengeMismatch
	}

	validated, err := s.webauthn.ValidateLogin(pu, *session, parsed)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.ChallengeMismatchEvent, userID).WithError(err))
		return nil, domain.ErrChallengeMismatch
	}

	credentialID := encodeCredentialID(validated.ID)
	stored, err := s.credRepo.FindByCredentialID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if stored.UserID != userID {
		return nil, domain.ErrCredentialNotFound
	}

	credentialJSON, err := json.Marshal(validated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential: %w", err)
	}

	reported := validated.Authenticator.SignCount
	advanced, err := s.credRepo.AdvanceCounter(ctx, credentialID, reported, string(credentialJSON), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to advance counter: %w", err)
	}
	if !advanced {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.CounterReplayEvent, userID).
			WithMetadata("credential_id", credentialID).
			WithMetadata("reported", reported).
			WithMetadata("stored", stored.SignCount).
			WithError(domain.ErrCounterReplay))
		return nil, domain.ErrCounterReplay
	}

	token, expiresAt, err := s.tokenSvc.Mint(pu.user.ID, pu.user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasskeyAuthenticatedEvent, userID).WithMetadata("credential_id", credentialID))

	return &domain.AuthResult{
		User:      pu.user,
		Token:     token,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
	}, nil
}

func (s *PasskeyServiceImpl) loadPasskeyUser(ctx context.Context, userID uint) (*passkeyUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.credRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		var credential webauthn.Credential
		if err := json.Unmarshal([]byte(record.Credential), &credential); err != nil {
			return nil, fmt.Errorf("failed to decode credential %s: %w", record.CredentialID, err)
		}
		credentials = append(credentials, credential)
	}

	return &passkeyUser{user: user, credentials: credentials}, nil
}

func (s *PasskeyServiceImpl) storeChallenge(ctx context.Context, userID uint, purpose domain.ChallengePurpose, session *webauthn.SessionData) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}

	return s.chalRepo.Put(ctx, &domain.Challenge{
		UserID:    userID,
		Purpose:   purpose,
		Session:   payload,
		CreatedAt: time.Now(),
	})
}

func (s *PasskeyServiceImpl) consumeChallenge(ctx context.Context, userID uint, purpose domain.ChallengePurpose) (*webauthn.SessionData, error) {
	challenge, err := s.chalRepo.Consume(ctx, userID, purpose)
	if err != nil {
		if err == domain.ErrChallengeMismatch {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.ChallengeMismatchEvent, userID).WithError(err))
		}
		return nil, err
	}

	var session webauthn.SessionData
	if err := json.Unmarshal(challenge.Session, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session data: %w", err)
	}
	return &session, nil
}

func credentialDescriptors(credentials []webauthn.Credential) []protocol.CredentialDescriptor {
	descriptors := make([]protocol.CredentialDescriptor, 0, len(credentials))
	for _, credential := range credentials {
		descriptors = append(descriptors, protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: credential.ID,
		})
	}
	return descriptors
}

func joinTransports(transports []protocol.AuthenticatorTransport) string {
	names := make([]string, 0, len(transports))
	for _, transport := range transports {
		names = append(names, string(transport))
	}
	return strings.Join(names, ",")
}

func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
