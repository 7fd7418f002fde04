package auth

import (
	"testing"
	"time"

	"github.com/Dylansm37/guardfile/domain"
)

func TestJWTService_MintAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", "guardfile-test", 10*time.Minute)

	token, expiresAt, err := svc.Mint(42, "alice")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	remaining := time.Until(expiresAt)
	if remaining < 9*time.Minute || remaining > 10*time.Minute {
		t.Errorf("expected expiry about 10m out, got %v", remaining)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user_id 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %s", claims.Username)
	}
	if claims.ExpiresAt != expiresAt.Unix() {
		t.Errorf("expected exp claim %d, got %d", expiresAt.Unix(), claims.ExpiresAt)
	}
}

func TestJWTService_MintedTokensAreUnique(t *testing.T) {
	svc := NewJWTService("test-secret", "guardfile-test", 10*time.Minute)

	first, _, err := svc.Mint(1, "alice")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	second, _, err := svc.Mint(1, "alice")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// Same user, same instant, still two distinct tokens: refresh must always
	// hand back something new.
	if first == second {
		t.Error("expected distinct tokens for consecutive mints")
	}
}

func TestJWTService_VerifyExpired(t *testing.T) {
	svc := NewJWTService("test-secret", "guardfile-test", -1*time.Minute)

	token, _, err := svc.Mint(42, "alice")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if _, err := svc.Verify(token); err != domain.ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTService_VerifyTampered(t *testing.T) {
	svc := NewJWTService("test-secret", "guardfile-test", 10*time.Minute)
	other := NewJWTService("other-secret", "guardfile-test", 10*time.Minute)

	token, _, err := other.Mint(42, "alice")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if _, err := svc.Verify(token); err != domain.ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid for wrong signature, got %v", err)
	}

	if _, err := svc.Verify("not-a-token"); err != domain.ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid for garbage input, got %v", err)
	}
}
