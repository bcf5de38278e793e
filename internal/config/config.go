package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Environment
	AppEnv string `env:"APP_ENV" envDefault:"production"`

	// Database
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Redis
	RedisURL string `env:"REDIS_URL,required"`

	// JWT Configuration
	JWTHS256Secret      string `env:"JWT_HS256_SECRET,required"`    // Base64-encoded HMAC secret
	JWTAllowedIssuers   string `env:"JWT_ALLOWED_ISSUERS,required"` // CSV list of allowed issuers (e.g., "pilot-dashboard,pilot-widget")
	JWTAudience         string `env:"JWT_AUDIENCE,required"`        // Expected JWT audience
	JWTClockSkewSeconds int    `env:"JWT_CLOCK_SKEW_SECONDS" envDefault:"60"`
	JWTPublicKeyWidget  string `env:"JWT_PUBLIC_KEY_WIDGET"` // Optional RS256 public key for the widget backend issuer

	// Service tokens for internal callers (widget backend, scheduler)
	ServiceTokenWidget    string `env:"SERVICE_TOKEN_WIDGET"`
	ServiceTokenScheduler string `env:"SERVICE_TOKEN_SCHEDULER"`

	// Automation dispatch (outbox delivery)
	AutomationEndpoint       string `env:"AUTOMATION_ENDPOINT"`        // Internal dispatcher URL; empty disables delivery
	AutomationSecret         string `env:"AUTOMATION_SECRET"`          // Shared secret for payload signing
	DispatchIntervalSeconds  int    `env:"DISPATCH_INTERVAL_SECONDS" envDefault:"5"`
	DispatchBatchSize        int    `env:"DISPATCH_BATCH_SIZE" envDefault:"50"`
	DispatchMaxAttempts      int    `env:"DISPATCH_MAX_ATTEMPTS" envDefault:"10"`
	DispatchRetentionHours   int    `env:"DISPATCH_RETENTION_HOURS" envDefault:"72"`

	// OpenTelemetry
	OTELEnabled          bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"pilot-api"`
	OTELSamplingRatio    float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`

	// Server
	Port string `env:"PORT" envDefault:"3001"`

	// Rate limiting
	RateLimitPerAccountPerMin int `env:"RATE_LIMIT_PER_ACCOUNT_PER_MIN" envDefault:"120"`

	// Optional shared token protecting /metrics; empty leaves it open
	MetricsToken string `env:"METRICS_TOKEN"`

	// Log level
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWTHS256Secret == "" {
		return fmt.Errorf("JWT_HS256_SECRET is required")
	}

	if c.JWTAudience == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}

	issuers := c.GetAllowedIssuers()
	if len(issuers) == 0 {
		return fmt.Errorf("JWT_ALLOWED_ISSUERS must contain at least one valid issuer")
	}

	if c.JWTClockSkewSeconds < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW_SECONDS must be non-negative")
	}

	if c.AutomationEndpoint != "" && c.AutomationSecret == "" {
		return fmt.Errorf("AUTOMATION_SECRET is required when AUTOMATION_ENDPOINT is set")
	}

	if c.DispatchIntervalSeconds <= 0 {
		return fmt.Errorf("DISPATCH_INTERVAL_SECONDS must be positive")
	}

	if c.DispatchBatchSize <= 0 {
		return fmt.Errorf("DISPATCH_BATCH_SIZE must be positive")
	}

	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1")
	}

	if c.RateLimitPerAccountPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_ACCOUNT_PER_MIN must be positive")
	}

	return nil
}

// GetAllowedIssuers returns the list of allowed JWT issuers
func (c *Config) GetAllowedIssuers() []string {
	issuers := strings.Split(c.JWTAllowedIssuers, ",")
	result := make([]string, 0, len(issuers))
	for _, issuer := range issuers {
		trimmed := strings.TrimSpace(issuer)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// TelemetryEnabled reports whether the OTLP exporters should be started
func (c *Config) TelemetryEnabled() bool {
	return c.OTELEnabled && c.OTELExporterEndpoint != ""
}

// DispatchEnabled reports whether the outbox dispatcher should run
func (c *Config) DispatchEnabled() bool {
	return c.AutomationEndpoint != ""
}
