package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dylansm37/guardfile/domain"
)

// PolicyHandlers exposes casbin policy administration
type PolicyHandlers struct {
	policySvc domain.PolicyService
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(policySvc domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{policySvc: policySvc}
}

type policyReq struct {
	Sub string `json:"sub" binding:"required"`
	Obj string `json:"obj" binding:"required"`
	Act string `json:"act" binding:"required"`
}

// List returns all stored policies
func (h *PolicyHandlers) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.policySvc.GetPolicies())
}

// Add stores a new policy rule
func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.policySvc.AddPolicy(r.Sub, r.Obj, r.Act); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not added"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove deletes a policy rule
func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.policySvc.RemovePolicy(r.Sub, r.Obj, r.Act); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not removed"})
		return
	}
	c.Status(http.StatusNoContent)
}
