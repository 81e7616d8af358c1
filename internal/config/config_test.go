package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadRejectsNonNumericPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := LoadEnvironmentVariables()
	require.Error(t, err)
}

func TestLoadParsesAllowedOrigins(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://taleloom.app, http://localhost:3000")

	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"https://taleloom.app", "http://localhost:3000"}, cfg.AllowedOrigins)
}
