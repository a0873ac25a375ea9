package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GHOST_URL", "https://blog.example.com/")
	t.Setenv("GHOST_ADMIN_API_KEY", "abc123:4e6f74417265616c4b6579")
}

func TestLoadDefaults(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	validEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	// Trailing slash is stripped so URL joining stays predictable.
	assert.Equal(t, "https://blog.example.com", cfg.GhostURL)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, DefaultMCPPort, cfg.MCPPort)
	assert.Equal(t, DefaultAPIPort, cfg.APIPort)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.Breaker.ResetTimeout)
	assert.Equal(t, 10*time.Second, cfg.Breaker.MonitoringPeriod)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.False(t, cfg.Env().IsDevelopment)
}

func TestLoadMissingFields(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	t.Setenv("GHOST_URL", "")
	t.Setenv("GHOST_ADMIN_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	require.True(t, errors.IsConfiguration(err))

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"GHOST_URL", "GHOST_ADMIN_API_KEY"}, e.MissingFields)
	assert.False(t, e.IsOperational)
}

func TestLoadMalformedKey(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	t.Setenv("GHOST_URL", "https://blog.example.com")
	t.Setenv("GHOST_ADMIN_API_KEY", "not-an-admin-key")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestLoadEnvironmentFlag(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	validEnv(t)
	t.Setenv("GHOST_MCP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Env().IsDevelopment)
}

func TestLoadTunables(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	validEnv(t)
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("BREAKER_RESET_TIMEOUT_MS", "5000")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 5*time.Second, cfg.Breaker.ResetTimeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}
