package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port               string
	DatabaseURL        string
	JWTSecret          string
	JWTTTL             time.Duration
	SessionIdleTimeout time.Duration
	MaxLoginAttempts   int
	LogLevel           string

	BootstrapAdmin BootstrapAdmin

	// Optional client integrations, resolved once at startup.
	MapAvailable             bool
	DeviceLocationAvailable  bool
	SignatureCanvasAvailable bool
}

// BootstrapAdmin describes the administrator created on first start.
// An empty Password disables the bootstrap.
type BootstrapAdmin struct {
	Username string
	Password string
	FullName string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:                     fallback(os.Getenv("HTTP_PORT"), "8080"),
		DatabaseURL:              strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:                strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:                   duration(os.Getenv("JWT_EXPIRES_IN"), 12*time.Hour),
		SessionIdleTimeout:       duration(os.Getenv("SESSION_IDLE_TIMEOUT"), 15*time.Minute),
		MaxLoginAttempts:         positiveInt(os.Getenv("LOGIN_MAX_ATTEMPTS"), 5),
		LogLevel:                 fallback(os.Getenv("LOG_LEVEL"), "info"),
		MapAvailable:             boolean(os.Getenv("CAP_MAP"), true),
		DeviceLocationAvailable:  boolean(os.Getenv("CAP_DEVICE_LOCATION"), true),
		SignatureCanvasAvailable: boolean(os.Getenv("CAP_SIGNATURE_CANVAS"), true),
		BootstrapAdmin: BootstrapAdmin{
			Username: fallback(os.Getenv("BOOTSTRAP_ADMIN_USERNAME"), "admin"),
			Password: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
			FullName: fallback(os.Getenv("BOOTSTRAP_ADMIN_NAME"), "Administrador Principal"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func duration(value string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
		return d
	}
	return def
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func boolean(value string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
		return b
	}
	return def
}
