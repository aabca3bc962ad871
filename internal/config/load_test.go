package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarkell/scribe-api/internal/config"
)

// setRequiredEnv fills in the settings that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SCRIBE_DATABASE_URL", "postgres://localhost:5432/scribe")
	t.Setenv("SCRIBE_AUTH_JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("SCRIBE_CRYPTO_MASTER_KEY_HEX", strings.Repeat("ab", 32))
	t.Setenv("SCRIBE_ENGINE_BASE_URL", "http://localhost:8085")
}

func TestLoad(t *testing.T) {
	t.Run("loads from environment with defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Server.LogLevel)
		assert.Equal(t, int64(256<<20), cfg.Server.MaxUploadBytes)
		assert.Equal(t, "postgres://localhost:5432/scribe", cfg.Database.URL)
		assert.Equal(t, "http://localhost:8085", cfg.Engine.BaseURL)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SCRIBE_SERVER_PORT", "9090")
		t.Setenv("SCRIBE_SERVER_LOG_LEVEL", "debug")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Server.LogLevel)
	})

	t.Run("missing master key fails validation", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SCRIBE_CRYPTO_MASTER_KEY_HEX", "")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("short master key fails validation", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SCRIBE_CRYPTO_MASTER_KEY_HEX", strings.Repeat("ab", 16))

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("invalid log level fails validation", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SCRIBE_SERVER_LOG_LEVEL", "verbose")

		_, err := config.Load()
		assert.Error(t, err)
	})
}
