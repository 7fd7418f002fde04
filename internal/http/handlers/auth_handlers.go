package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Dylansm37/guardfile/domain"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc   domain.AuthService
	deviceSvc domain.DeviceService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, deviceSvc domain.DeviceService) *AuthHandlers {
	return &AuthHandlers{
		authSvc:   authSvc,
		deviceSvc: deviceSvc,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// DeviceToken identifies the browser or app install; empty means the
	// client does not participate in device trust.
	DeviceToken string `json:"device_token,omitempty"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	Token string `json:"token" binding:"required"`
}

// Register handles user registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if err == domain.ErrUserAlreadyExists {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"message": "User registered successfully",
			"user_id": user.ID,
		},
	})
}

// Login handles user login. Unknown accounts and wrong passwords produce the
// same response body and status.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredentials:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		case domain.ErrUserInactive:
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	// The device gate runs after password verification so it never leaks
	// whether the credentials were right. A minted-but-withheld token is
	// harmless; it ages out on its own.
	if req.DeviceToken != "" {
		check, err := h.deviceSvc.IsTrusted(c.Request.Context(), result.User.ID, req.DeviceToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}
		if !check.Trusted {
			c.JSON(http.StatusForbidden, gin.H{
				"error":                         "Device not trusted",
				"device_verification_required": true,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"token":      result.Token,
			"token_type": "Bearer",
			"expires_at": result.ExpiresAt,
			"expires_in": result.ExpiresIn,
			"user": gin.H{
				"id":       result.User.ID,
				"username": result.User.Username,
				"email":    result.User.Email,
				"role":     result.User.Role,
			},
		},
	})
}

// Refresh handles sliding renewal. A valid token is exchanged for a new one
// with a fresh full validity window.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.Token)
	if err != nil {
		if err == domain.ErrTokenInvalid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"token":      result.Token,
			"token_type": "Bearer",
			"expires_at": result.ExpiresAt,
			"expires_in": result.ExpiresIn,
		},
	})
}

// Logout handles user logout (requires authentication). Tokens are stateless,
// so this only records the event; the client discards its copy.
func (h *AuthHandlers) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Logged out successfully",
		},
	})
}

// Me handles getting user profile (requires authentication)
func (h *AuthHandlers) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"id":                  user.ID,
			"username":            user.Username,
			"email":               user.Email,
			"phone":               user.Phone,
			"role":                user.Role,
			"is_active":           user.IsActive,
			"device_auth_enabled": user.DeviceAuthEnabled,
			"created_at":          user.CreatedAt,
			"updated_at":          user.UpdatedAt,
		},
	})
}

// GetUser returns a user profile by path ID (requires ownership or admin)
func (h *AuthHandlers) GetUser(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"id":                  user.ID,
			"username":            user.Username,
			"email":               user.Email,
			"role":                user.Role,
			"is_active":           user.IsActive,
			"device_auth_enabled": user.DeviceAuthEnabled,
		},
	})
}

// UpdatePhoneRequest represents phone update request
type UpdatePhoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// UpdatePhone handles phone number changes (requires ownership)
func (h *AuthHandlers) UpdatePhone(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req UpdatePhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.UpdatePhone(c.Request.Context(), userID, req.Phone); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update phone"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Phone updated successfully",
		},
	})
}

// UpdatePasswordRequest represents password change request
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// UpdatePassword handles password changes (requires ownership)
func (h *AuthHandlers) UpdatePassword(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.UpdatePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		if err == domain.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Password updated successfully",
		},
	})
}

// ForgotPasswordRequest represents password reset initiation
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword starts a password reset. The response is identical whether
// the email is known or not.
func (h *AuthHandlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "If the email exists, a reset token has been sent",
		},
	})
}

// ResetPasswordRequest represents password reset completion
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ResetPassword completes a password reset
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if err == domain.ErrResetTokenInvalid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Password reset successfully",
		},
	})
}

// currentUserID reads the authenticated user from the context set by the auth
// middleware. It writes the error response itself when the value is missing.
func currentUserID(c *gin.Context) (uint, bool) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return 0, false
	}

	userID, err := strconv.ParseUint(userIDStr.(string), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}

	return uint(userID), true
}

// pathUserID reads the :id route parameter. Ownership enforcement already
// happened in middleware; this only parses.
func pathUserID(c *gin.Context) (uint, bool) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return uint(userID), true
}
