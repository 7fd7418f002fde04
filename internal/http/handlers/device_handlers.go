package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dylansm37/guardfile/domain"
)

// DeviceHandlers handles trusted-device HTTP requests
type DeviceHandlers struct {
	deviceSvc domain.DeviceService
	userRepo  domain.UserRepository
}

// NewDeviceHandlers creates new device handlers
func NewDeviceHandlers(deviceSvc domain.DeviceService, userRepo domain.UserRepository) *DeviceHandlers {
	return &DeviceHandlers{
		deviceSvc: deviceSvc,
		userRepo:  userRepo,
	}
}

// DeviceCheckRequest represents a pre-login device check
type DeviceCheckRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DeviceToken string `json:"device_token" binding:"required"`
}

// Check reports whether a device may proceed with login. An unknown email
// answers exactly like an account that never enabled device auth, so the
// endpoint cannot be used to probe for accounts.
func (h *DeviceHandlers) Check(c *gin.Context) {
	var req DeviceCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			c.JSON(http.StatusOK, gin.H{
				"data": gin.H{
					"trusted":         true,
					"feature_enabled": false,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Device check failed"})
		return
	}

	check, err := h.deviceSvc.IsTrusted(c.Request.Context(), user.ID, req.DeviceToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Device check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"trusted":         check.Trusted,
			"feature_enabled": check.FeatureEnabled,
		},
	})
}

// TrustDeviceRequest represents a trust request
type TrustDeviceRequest struct {
	DeviceToken string `json:"device_token" binding:"required"`
	DeviceName  string `json:"device_name" binding:"required"`
}

// Trust marks a device as trusted for the account (requires ownership)
func (h *DeviceHandlers) Trust(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req TrustDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta := domain.DeviceMetadata{
		DeviceName: req.DeviceName,
		UserAgent:  c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
	}

	if err := h.deviceSvc.Trust(c.Request.Context(), userID, req.DeviceToken, meta); err != nil {
		switch err {
		case domain.ErrDeviceAlreadyTrusted:
			c.JSON(http.StatusOK, gin.H{
				"data": gin.H{
					"message": "Device already trusted",
				},
			})
		case domain.ErrUserNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trust device"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"message": "Device trusted successfully",
		},
	})
}

// List returns the account's trusted devices (requires ownership)
func (h *DeviceHandlers) List(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	devices, err := h.deviceSvc.ListDevices(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list devices"})
		return
	}

	items := make([]gin.H, 0, len(devices))
	for _, device := range devices {
		items = append(items, gin.H{
			"device_token": device.DeviceToken,
			"device_name":  device.DeviceName,
			"trusted_at":   device.TrustedAt,
			"last_used_at": device.LastUsedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"devices": items,
		},
	})
}

// Revoke removes a device from the trusted set (requires ownership). Revoking
// an unknown token succeeds; the end state is the same.
func (h *DeviceHandlers) Revoke(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	deviceToken := c.Param("deviceToken")
	if deviceToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Device token required"})
		return
	}

	if err := h.deviceSvc.Revoke(c.Request.Context(), userID, deviceToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Device revoked",
		},
	})
}

// ToggleFeatureRequest represents a device-auth flag change
type ToggleFeatureRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ToggleFeature flips the per-account device-auth flag (requires ownership).
// Disabling does not clear the stored device set.
func (h *DeviceHandlers) ToggleFeature(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req ToggleFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.deviceSvc.SetFeatureEnabled(c.Request.Context(), userID, *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update device auth setting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Device auth setting updated",
			"enabled": *req.Enabled,
		},
	})
}
