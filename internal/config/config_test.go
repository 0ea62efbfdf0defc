package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "")
	t.Setenv("CAP_MAP", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 15*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.True(t, cfg.MapAvailable)
	assert.Equal(t, "admin", cfg.BootstrapAdmin.Username)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("CAP_MAP", "false")
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.False(t, cfg.MapAvailable)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "x")
	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")

	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}
