package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dylansm37/guardfile/domain"
)

// PasskeyHandlers handles public-key credential ceremony HTTP requests
type PasskeyHandlers struct {
	passkeySvc domain.PasskeyService
	userRepo   domain.UserRepository
}

// NewPasskeyHandlers creates new passkey handlers
func NewPasskeyHandlers(passkeySvc domain.PasskeyService, userRepo domain.UserRepository) *PasskeyHandlers {
	return &PasskeyHandlers{
		passkeySvc: passkeySvc,
		userRepo:   userRepo,
	}
}

// BeginRegistration starts a credential registration ceremony (requires
// authentication). Any prior in-flight ceremony for the account is discarded.
func (h *PasskeyHandlers) BeginRegistration(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	options, err := h.passkeySvc.BeginRegistration(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to begin registration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"options": options}})
}

// FinishRegistration completes a credential registration ceremony (requires
// authentication). The body is the browser's raw ceremony response.
func (h *PasskeyHandlers) FinishRegistration(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	credential, err := h.passkeySvc.FinishRegistration(c.Request.Context(), userID, body)
	if err != nil {
		if err == domain.ErrChallengeMismatch {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Registration failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finish registration"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"message":       "Passkey registered successfully",
			"credential_id": credential.CredentialID,
		},
	})
}

// PasskeyLoginBeginRequest represents an authentication ceremony start
type PasskeyLoginBeginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// BeginLogin starts an authentication ceremony. Unknown emails and accounts
// without credentials get the same generic rejection.
func (h *PasskeyHandlers) BeginLogin(c *gin.Context) {
	var req PasskeyLoginBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		return
	}

	options, err := h.passkeySvc.BeginAuthentication(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user_id": user.ID,
			"options": options,
		},
	})
}

// PasskeyLoginFinishRequest represents an authentication ceremony completion
type PasskeyLoginFinishRequest struct {
	UserID   uint            `json:"user_id" binding:"required"`
	Response json.RawMessage `json:"response" binding:"required"`
}

// FinishLogin completes an authentication ceremony. Replayed challenges and
// non-advancing signature counters both collapse to the generic rejection;
// the audit log keeps the distinction.
func (h *PasskeyHandlers) FinishLogin(c *gin.Context) {
	var req PasskeyLoginFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.passkeySvc.FinishAuthentication(c.Request.Context(), req.UserID, req.Response)
	if err != nil {
		switch err {
		case domain.ErrChallengeMismatch, domain.ErrCounterReplay, domain.ErrCredentialNotFound:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
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
