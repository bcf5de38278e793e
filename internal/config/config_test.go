package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AppEnv:                    "test",
		DatabaseURL:               "postgres://localhost:5432/pilot",
		RedisURL:                  "redis://localhost:6379",
		JWTHS256Secret:            "c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0LXNlY3JldA==",
		JWTAllowedIssuers:         "pilot-dashboard,pilot-widget",
		JWTAudience:               "pilot-api",
		JWTClockSkewSeconds:       60,
		DispatchIntervalSeconds:   5,
		DispatchBatchSize:         50,
		DispatchMaxAttempts:       10,
		OTELSamplingRatio:         0.1,
		RateLimitPerAccountPerMin: 120,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing redis url",
			mutate:  func(c *Config) { c.RedisURL = "" },
			wantErr: "REDIS_URL",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.JWTHS256Secret = "" },
			wantErr: "JWT_HS256_SECRET",
		},
		{
			name:    "missing audience",
			mutate:  func(c *Config) { c.JWTAudience = "" },
			wantErr: "JWT_AUDIENCE",
		},
		{
			name:    "empty issuers",
			mutate:  func(c *Config) { c.JWTAllowedIssuers = " , " },
			wantErr: "JWT_ALLOWED_ISSUERS",
		},
		{
			name:    "negative clock skew",
			mutate:  func(c *Config) { c.JWTClockSkewSeconds = -1 },
			wantErr: "JWT_CLOCK_SKEW_SECONDS",
		},
		{
			name:    "endpoint without secret",
			mutate:  func(c *Config) { c.AutomationEndpoint = "http://dispatcher:8080/hooks" },
			wantErr: "AUTOMATION_SECRET",
		},
		{
			name: "endpoint with secret is fine",
			mutate: func(c *Config) {
				c.AutomationEndpoint = "http://dispatcher:8080/hooks"
				c.AutomationSecret = "shh"
			},
		},
		{
			name:    "sampling ratio out of range",
			mutate:  func(c *Config) { c.OTELSamplingRatio = 1.5 },
			wantErr: "OTEL_SAMPLING_RATIO",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimitPerAccountPerMin = 0 },
			wantErr: "RATE_LIMIT_PER_ACCOUNT_PER_MIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetAllowedIssuers(t *testing.T) {
	cfg := validConfig()
	cfg.JWTAllowedIssuers = " pilot-dashboard , pilot-widget ,, "

	assert.Equal(t, []string{"pilot-dashboard", "pilot-widget"}, cfg.GetAllowedIssuers())
}

func TestDispatchEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.DispatchEnabled())

	cfg.AutomationEndpoint = "http://dispatcher:8080/hooks"
	assert.True(t, cfg.DispatchEnabled())
}
