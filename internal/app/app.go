package app

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/Dylansm37/guardfile/internal/config"
	httpx "github.com/Dylansm37/guardfile/internal/http"
	"github.com/Dylansm37/guardfile/internal/http/handlers"
	"github.com/Dylansm37/guardfile/internal/http/middleware"
	"github.com/Dylansm37/guardfile/internal/infrastructure/auth"
	"github.com/Dylansm37/guardfile/internal/infrastructure/database"
	"github.com/Dylansm37/guardfile/internal/infrastructure/notifications"
	"github.com/Dylansm37/guardfile/internal/infrastructure/repositories"
	"github.com/Dylansm37/guardfile/internal/services"
)

func Run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	gdb, err := database.Open(cfg.DSN)
	if err != nil { return err }
	if err := database.AutoMigrate(gdb); err != nil { return err }
	cas, err := auth.NewCasbinService(gdb, cfg.CasbinModelPath)
	if err != nil { return err }
	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB).Client
	if err := rdb.Ping(context.Background()).Err(); err != nil { return err }

	wa, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.RPID,
		RPDisplayName: cfg.RPDisplayName,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil { return err }

	// Infrastructure services
	passwordSvc := auth.NewPasswordService()
	tokenSvc := auth.NewJWTService(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)
	notificationSvc := notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	auditLogger := services.NewAuditLogger()

	// Repositories
	userRepo := repositories.NewUserRepository(gdb)
	deviceRepo := repositories.NewDeviceRepository(gdb)
	credRepo := repositories.NewCredentialRepository(gdb)
	chalRepo := repositories.NewChallengeRepository(rdb, cfg.ChallengeTTL)

	// Services
	authSvc := services.NewAuthService(userRepo, passwordSvc, tokenSvc, notificationSvc, auditLogger,
		services.AuthConfig{ResetTokenTTL: cfg.ResetTokenTTL})
	deviceSvc := services.NewDeviceService(userRepo, deviceRepo, notificationSvc, auditLogger)
	passkeySvc := services.NewPasskeyService(userRepo, credRepo, chalRepo, tokenSvc, auditLogger, wa)
	policySvc := services.NewPolicyService(cas.E)

	// Handlers
	authH := handlers.NewAuthHandlers(authSvc, deviceSvc)
	deviceH := handlers.NewDeviceHandlers(deviceSvc, userRepo)
	passkeyH := handlers.NewPasskeyHandlers(passkeySvc, userRepo)
	policyH := handlers.NewPolicyHandlers(policySvc)

	// Middleware
	jwtMW := middleware.AuthMiddleware(tokenSvc, userRepo)
	casbinMW := middleware.NewCasbinMW(cas.E, cfg.OwnershipRules)

	r := httpx.BuildRouter(authH, deviceH, passkeyH, policyH, jwtMW, casbinMW)

	policies, _ := cas.E.GetPolicy()
	if len(policies) == 0 {
		cas.E.AddPolicy("role_admin", "/admin/*", "(GET|POST|PUT|DELETE)")
		cas.E.AddPolicy("role_user", "/auth/me", "GET")
		cas.E.AddPolicy("role_user", "/auth/logout", "POST")
		cas.E.AddPolicy("role_user", "/auth/passkey/register/*", "POST")
		cas.E.AddPolicy("role_owner", "/api/users/*", "(GET|PATCH|POST|DELETE)")
		_ = cas.E.SavePolicy()
		log.Println("casbin: seeded default policies")
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}
