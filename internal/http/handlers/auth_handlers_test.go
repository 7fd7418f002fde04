package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dylansm37/guardfile/domain"
	"github.com/Dylansm37/guardfile/internal/mocks"
	"github.com/Dylansm37/guardfile/internal/services"
)

func testUser(deviceAuth bool) *domain.User {
	return &domain.User{
		ID:                1,
		Username:          "alice",
		Email:             "alice@example.com",
		PasswordHash:      "hashed:secret",
		Role:              "user",
		IsActive:          true,
		DeviceAuthEnabled: deviceAuth,
	}
}

func newLoginTestRouter(userRepo *mocks.MockUserRepository, deviceRepo *mocks.MockDeviceRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	authSvc := services.NewAuthService(
		userRepo,
		&mocks.MockPasswordService{},
		&mocks.MockTokenService{},
		&mocks.MockNotificationService{},
		&mocks.MockAuditLogger{},
		services.AuthConfig{ResetTokenTTL: time.Hour},
	)
	deviceSvc := services.NewDeviceService(userRepo, deviceRepo, &mocks.MockNotificationService{}, &mocks.MockAuditLogger{})
	h := NewAuthHandlers(authSvc, deviceSvc)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers_LoginSuccess(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	userRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
		return testUser(false), nil
	}

	r := newLoginTestRouter(userRepo, mocks.NewMockDeviceRepository())
	w := postJSON(t, r, "/auth/login", `{"email":"alice@example.com","password":"secret"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
	assert.Contains(t, w.Body.String(), `"expires_in"`)
}

func TestAuthHandlers_LoginFailuresShareOneResponse(t *testing.T) {
	knownRepo := mocks.NewMockUserRepository()
	knownRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
		return testUser(false), nil
	}

	unknownRouter := newLoginTestRouter(mocks.NewMockUserRepository(), mocks.NewMockDeviceRepository())
	knownRouter := newLoginTestRouter(knownRepo, mocks.NewMockDeviceRepository())

	unknownResp := postJSON(t, unknownRouter, "/auth/login", `{"email":"nobody@example.com","password":"whatever"}`)
	wrongPassResp := postJSON(t, knownRouter, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`)

	// Unknown account and wrong password must be byte-identical to the caller.
	require.Equal(t, http.StatusUnauthorized, unknownResp.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPassResp.Code)
	assert.Equal(t, unknownResp.Body.String(), wrongPassResp.Body.String())
}

func TestAuthHandlers_LoginDeviceGate(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	userRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
		return testUser(true), nil
	}
	userRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.User, error) {
		return testUser(true), nil
	}
	// Default TouchLastUsed: no matching device.
	deviceRepo := mocks.NewMockDeviceRepository()

	r := newLoginTestRouter(userRepo, deviceRepo)
	w := postJSON(t, r, "/auth/login", `{"email":"alice@example.com","password":"secret","device_token":"unseen"}`)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"device_verification_required":true`)
	assert.NotContains(t, w.Body.String(), `"token"`)
}

func TestAuthHandlers_LoginDeviceGateDefaultOpen(t *testing.T) {
	userRepo := mocks.NewMockUserRepository()
	userRepo.FindByEmailFunc = func(ctx context.Context, email string) (*domain.User, error) {
		return testUser(false), nil
	}
	userRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.User, error) {
		return testUser(false), nil
	}

	r := newLoginTestRouter(userRepo, mocks.NewMockDeviceRepository())
	w := postJSON(t, r, "/auth/login", `{"email":"alice@example.com","password":"secret","device_token":"unseen"}`)

	// Device auth never enabled: the unseen token sails through.
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}

func TestAuthHandlers_RefreshInvalidToken(t *testing.T) {
	r := newLoginTestRouter(mocks.NewMockUserRepository(), mocks.NewMockDeviceRepository())
	w := postJSON(t, r, "/auth/refresh", `{"token":"garbage"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}
