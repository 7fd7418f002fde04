package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnauthorized covers every authentication rejection from the server. The
// server deliberately does not say which part failed.
var ErrUnauthorized = errors.New("authentication rejected")

// ErrDeviceNotTrusted indicates login was blocked by the device gate.
var ErrDeviceNotTrusted = errors.New("device not trusted")

// TokenGrant is a minted session token and its validity window.
type TokenGrant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

// API is an HTTP client for the auth service.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI creates an API client.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type loginResponse struct {
	Data struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		ExpiresIn int64     `json:"expires_in"`
	} `json:"data"`
	DeviceVerificationRequired bool `json:"device_verification_required"`
}

// Login exchanges credentials for a session token. An optional device token
// participates in the server's device gate.
func (a *API) Login(ctx context.Context, email, password, deviceToken string) (*TokenGrant, error) {
	body := map[string]string{"email": email, "password": password}
	if deviceToken != "" {
		body["device_token"] = deviceToken
	}

	resp, err := a.post(ctx, "/auth/login", body, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		var payload loginResponse
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.DeviceVerificationRequired {
			return nil, ErrDeviceNotTrusted
		}
		return nil, ErrUnauthorized
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &TokenGrant{
		Token:     payload.Data.Token,
		ExpiresAt: payload.Data.ExpiresAt,
		ExpiresIn: payload.Data.ExpiresIn,
	}, nil
}

// Refresh trades a still-valid token for a fresh one.
func (a *API) Refresh(ctx context.Context, token string) (*TokenGrant, error) {
	resp, err := a.post(ctx, "/auth/refresh", map[string]string{"token": token}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh: unexpected status %d", resp.StatusCode)
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &TokenGrant{
		Token:     payload.Data.Token,
		ExpiresAt: payload.Data.ExpiresAt,
		ExpiresIn: payload.Data.ExpiresIn,
	}, nil
}

// Logout tells the server the session ended. The token keeps working until it
// ages out; the caller clears its stored copy regardless of the outcome.
func (a *API) Logout(ctx context.Context, token string) error {
	resp, err := a.post(ctx, "/auth/logout", struct{}{}, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logout: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// DeviceCheck is the server's answer to a pre-login device probe.
type DeviceCheck struct {
	Trusted        bool `json:"trusted"`
	FeatureEnabled bool `json:"feature_enabled"`
}

// CheckDevice asks whether a device may proceed with login for an email.
func (a *API) CheckDevice(ctx context.Context, email, deviceToken string) (*DeviceCheck, error) {
	resp, err := a.post(ctx, "/auth/device/check", map[string]string{
		"email":        email,
		"device_token": deviceToken,
	}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device check: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Data DeviceCheck `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload.Data, nil
}

func (a *API) post(ctx context.Context, path string, body interface{}, token string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return a.http.Do(req)
}
