package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/Dylansm37/guardfile/internal/http/handlers"
	"github.com/Dylansm37/guardfile/internal/http/middleware"
)

// BuildRouter wires handlers and middleware into the HTTP surface. Everything
// under /api and /admin passes through token verification and casbin; /auth
// stays public so login, refresh and the pre-login device check work without
// a session.
func BuildRouter(
	ah *handlers.AuthHandlers,
	dh *handlers.DeviceHandlers,
	pkh *handlers.PasskeyHandlers,
	ph *handlers.PolicyHandlers,
	jwtMW gin.HandlerFunc,
	casbinMW *middleware.CasbinMW,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/register", ah.Register)
	auth.POST("/login", ah.Login)
	auth.POST("/refresh", ah.Refresh)
	auth.POST("/forgot-password", ah.ForgotPassword)
	auth.POST("/reset-password", ah.ResetPassword)
	auth.POST("/device/check", dh.Check)
	auth.POST("/passkey/login/begin", pkh.BeginLogin)
	auth.POST("/passkey/login/finish", pkh.FinishLogin)

	v := r.Group("/").Use(jwtMW, casbinMW.Enforce())
	v.GET("/auth/me", ah.Me)
	v.POST("/auth/logout", ah.Logout)
	v.POST("/auth/passkey/register/begin", pkh.BeginRegistration)
	v.POST("/auth/passkey/register/finish", pkh.FinishRegistration)

	api := r.Group("/api").Use(jwtMW, casbinMW.Enforce())
	api.GET("/users/:id", ah.GetUser)
	api.PATCH("/users/:id/phone", ah.UpdatePhone)
	api.PATCH("/users/:id/password", ah.UpdatePassword)
	api.PATCH("/users/:id/device-auth", dh.ToggleFeature)
	api.GET("/users/:id/trusted-devices", dh.List)
	api.POST("/users/:id/trusted-devices", dh.Trust)
	api.DELETE("/users/:id/trusted-devices/:deviceToken", dh.Revoke)

	adm := r.Group("/admin").Use(jwtMW, casbinMW.Enforce())
	adm.GET("/policies", ph.List)
	adm.POST("/policies", ph.Add)
	adm.DELETE("/policies", ph.Remove)

	return r
}
