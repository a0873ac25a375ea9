// Package config loads and validates the ghost-mcp runtime configuration
// from environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ghost-mcp/ghost-mcp/pkg/errors"
)

// Defaults for optional settings.
const (
	DefaultMCPPort = "3001"
	DefaultAPIPort = "3002"
	DefaultHost    = "localhost"

	defaultBreakerFailureThreshold = 5
	defaultBreakerResetTimeoutMS   = 60000
	defaultBreakerMonitoringMS     = 10000
	defaultRetryMaxAttempts        = 3

	defaultImageMaxWidth  = 2000
	defaultImageMaxHeight = 2000
)

// Config holds the full runtime configuration.
type Config struct {
	// GhostURL is the base URL of the Ghost instance, e.g. https://blog.example.com
	GhostURL string
	// GhostAdminAPIKey is the Admin API key in "id:secret" form.
	GhostAdminAPIKey string

	// Environment is "development" or "production".
	Environment string

	MCPHost string
	MCPPort string
	APIHost string
	APIPort string

	Breaker BreakerConfig
	Retry   RetryConfig
	Images  ImageConfig
}

// BreakerConfig holds circuit breaker tunables.
type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	MonitoringPeriod time.Duration
}

// RetryConfig holds retry policy tunables.
type RetryConfig struct {
	MaxAttempts int
}

// ImageConfig bounds the image resize step before upload.
type ImageConfig struct {
	MaxWidth  int
	MaxHeight int
}

// Env returns the Environment value injected into error construction and
// formatting call sites.
func (c *Config) Env() errors.Environment {
	if strings.EqualFold(c.Environment, "development") {
		return errors.Development()
	}
	return errors.Production()
}

// Load reads configuration from the environment and validates it. A missing
// required setting yields a ConfigurationError listing every absent field.
func Load() (*Config, error) {
	v := viper.New()

	_ = v.BindEnv("ghost.url", "GHOST_URL")
	_ = v.BindEnv("ghost.admin_api_key", "GHOST_ADMIN_API_KEY")
	_ = v.BindEnv("environment", "GHOST_MCP_ENV", "NODE_ENV")
	_ = v.BindEnv("mcp.host", "MCP_HOST")
	_ = v.BindEnv("mcp.port", "MCP_PORT")
	_ = v.BindEnv("api.host", "API_HOST")
	_ = v.BindEnv("api.port", "API_PORT")
	_ = v.BindEnv("breaker.failure_threshold", "BREAKER_FAILURE_THRESHOLD")
	_ = v.BindEnv("breaker.reset_timeout_ms", "BREAKER_RESET_TIMEOUT_MS")
	_ = v.BindEnv("breaker.monitoring_period_ms", "BREAKER_MONITORING_PERIOD_MS")
	_ = v.BindEnv("retry.max_attempts", "RETRY_MAX_ATTEMPTS")
	_ = v.BindEnv("images.max_width", "IMAGE_MAX_WIDTH")
	_ = v.BindEnv("images.max_height", "IMAGE_MAX_HEIGHT")

	v.SetDefault("environment", "production")
	v.SetDefault("mcp.host", DefaultHost)
	v.SetDefault("mcp.port", DefaultMCPPort)
	v.SetDefault("api.host", DefaultHost)
	v.SetDefault("api.port", DefaultAPIPort)
	v.SetDefault("breaker.failure_threshold", defaultBreakerFailureThreshold)
	v.SetDefault("breaker.reset_timeout_ms", defaultBreakerResetTimeoutMS)
	v.SetDefault("breaker.monitoring_period_ms", defaultBreakerMonitoringMS)
	v.SetDefault("retry.max_attempts", defaultRetryMaxAttempts)
	v.SetDefault("images.max_width", defaultImageMaxWidth)
	v.SetDefault("images.max_height", defaultImageMaxHeight)

	cfg := &Config{
		GhostURL:         strings.TrimRight(v.GetString("ghost.url"), "/"),
		GhostAdminAPIKey: v.GetString("ghost.admin_api_key"),
		Environment:      v.GetString("environment"),
		MCPHost:          v.GetString("mcp.host"),
		MCPPort:          v.GetString("mcp.port"),
		APIHost:          v.GetString("api.host"),
		APIPort:          v.GetString("api.port"),
		Breaker: BreakerConfig{
			FailureThreshold: v.GetInt("breaker.failure_threshold"),
			ResetTimeout:     time.Duration(v.GetInt("breaker.reset_timeout_ms")) * time.Millisecond,
			MonitoringPeriod: time.Duration(v.GetInt("breaker.monitoring_period_ms")) * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
		},
		Images: ImageConfig{
			MaxWidth:  v.GetInt("images.max_width"),
			MaxHeight: v.GetInt("images.max_height"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.GhostURL == "" {
		missing = append(missing, "GHOST_URL")
	}
	if c.GhostAdminAPIKey == "" {
		missing = append(missing, "GHOST_ADMIN_API_KEY")
	}
	if len(missing) > 0 {
		return errors.NewConfigurationError("missing required configuration", missing)
	}

	if !strings.Contains(c.GhostAdminAPIKey, ":") {
		return errors.NewConfigurationError(
			"GHOST_ADMIN_API_KEY must be in id:secret form", nil)
	}
	return nil
}
