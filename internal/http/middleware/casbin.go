package middleware

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"

	"github.com/Dylansm37/guardfile/internal/config"
)

// CasbinMW wraps the casbin enforcer and ownership rules for middleware
type CasbinMW struct {
	enforcer *casbin.Enforcer
	rules    []config.OwnershipRule
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer *casbin.Enforcer, rules []config.OwnershipRule) *CasbinMW {
	return &CasbinMW{enforcer: enforcer, rules: rules}
}

// Enforce returns the casbin authorization middleware
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		tokenUserID, userExists := c.Get("user_id")
		primaryRole, roleExists := c.Get("user_role")
		if !userExists || !roleExists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID or role not found in token"})
			c.Abort()
			return
		}

		// A mismatched x-user-id header is rejected outright.
		headerUserID := c.GetHeader("x-user-id")
		if headerUserID != "" && headerUserID != tokenUserID.(string) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Header x-user-id does not match token user ID"})
			c.Abort()
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		// Ownership is decided against the route pattern, not the raw path.
		isOwner := false
		for _, rule := range mw.rules {
			if rule.Path == c.FullPath() && rule.Method == method {
				requestUserID := extractUserID(c, rule.Source, rule.ParamName)
				if requestUserID != "" && requestUserID == tokenUserID.(string) {
					isOwner = true
					break
				}
			}
		}

		// The primary role is checked first so admins bypass ownership rules.
		casbinRole := "role_" + primaryRole.(string)
		allowed, err := mw.enforcer.Enforce(casbinRole, path, method)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			c.Abort()
			return
		}

		if !allowed && isOwner {
			allowed, err = mw.enforcer.Enforce("role_owner", path, method)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed for owner"})
				c.Abort()
				return
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
			c.Abort()
			return
		}

		c.Next()
	})
}
