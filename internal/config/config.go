package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type OwnershipRule struct {
	Method    string `yaml:"method"`
	Path      string `yaml:"path"`
	Source    string `yaml:"source"`
	ParamName string `yaml:"paramName"`
}

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	// TTL is the full validity window of a session token. The client half of
	// the coordinator assumes the same value; it is a contract, not negotiated.
	TTL           string `yaml:"ttl"`
	WarningLead   string `yaml:"warning_lead"`
	RefreshWindow string `yaml:"refresh_window"`
}

type WebAuthnConfig struct {
	RPID          string   `yaml:"rp_id"`
	RPDisplayName string   `yaml:"rp_display_name"`
	RPOrigins     []string `yaml:"rp_origins"`
	ChallengeTTL  string   `yaml:"challenge_ttl"`
}

type PasswordResetConfig struct {
	TokenTTL string `yaml:"token_ttl"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Session       SessionConfig       `yaml:"session"`
	WebAuthn      WebAuthnConfig      `yaml:"webauthn"`
	PasswordReset PasswordResetConfig `yaml:"password_reset"`
	Twilio        TwilioConfig        `yaml:"twilio"`
	Casbin        CasbinConfig        `yaml:"casbin"`
}

type Config struct {
	Port          string
	GinMode       string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionSecret string
	SessionIssuer string
	SessionTTL    time.Duration
	WarningLead   time.Duration
	RefreshWindow time.Duration

	RPID          string
	RPDisplayName string
	RPOrigins     []string
	ChallengeTTL  time.Duration

	ResetTokenTTL time.Duration

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string

	CasbinModelPath string
	OwnershipRules  []OwnershipRule
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	configFile, err := loadConfigFile(env("CONFIG_PATH", "config/config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	sessionTTL, err := time.ParseDuration(configFile.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session TTL: %w", err)
	}

	warningLead, err := time.ParseDuration(configFile.Session.WarningLead)
	if err != nil {
		return nil, fmt.Errorf("invalid session warning lead: %w", err)
	}

	refreshWindow, err := time.ParseDuration(configFile.Session.RefreshWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid session refresh window: %w", err)
	}

	challengeTTL, err := time.ParseDuration(configFile.WebAuthn.ChallengeTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid webauthn challenge TTL: %w", err)
	}

	resetTTL, err := time.ParseDuration(configFile.PasswordReset.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid password reset token TTL: %w", err)
	}

	ownershipRules, err := loadOwnershipRules(env("OWNERSHIP_RULES_PATH", "config/ownership_rules.yml"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            fmt.Sprintf("%d", configFile.App.Port),
		GinMode:         configFile.App.GinMode,
		DSN:             env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:       env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:   env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:         configFile.Redis.DB,
		SessionSecret:   env("SESSION_SECRET", configFile.Session.Secret),
		SessionIssuer:   configFile.Session.Issuer,
		SessionTTL:      sessionTTL,
		WarningLead:     warningLead,
		RefreshWindow:   refreshWindow,
		RPID:            configFile.WebAuthn.RPID,
		RPDisplayName:   configFile.WebAuthn.RPDisplayName,
		RPOrigins:       configFile.WebAuthn.RPOrigins,
		ChallengeTTL:    challengeTTL,
		ResetTokenTTL:   resetTTL,
		TwilioSID:       env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:     env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:      env("TWILIO_FROM_NUMBER", configFile.Twilio.FromNumber),
		CasbinModelPath: configFile.Casbin.ModelPath,
		OwnershipRules:  ownershipRules,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

func loadOwnershipRules(path string) ([]OwnershipRule, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read ownership rules file: %w", err)
	}

	var rules struct {
		Rules []OwnershipRule `yaml:"ownershipRules"`
	}
	if err := yaml.Unmarshal(bytes, &rules); err != nil {
		return nil, fmt.Errorf("could not parse ownership rules yaml: %w", err)
	}
	return rules.Rules, nil
}
