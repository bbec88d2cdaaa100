package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Backend BackendConfig `mapstructure:"backend" validate:"required"`
	Auth    AuthConfig    `mapstructure:"auth"    validate:"required"`
	Gateway GatewayConfig `mapstructure:"gateway" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// BackendConfig describes the remote Synth REST API.
type BackendConfig struct {
	// BaseURL includes the /api prefix, e.g. http://localhost:8080/api
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	// GradingTimeout bounds a single answer submission. AI grading is slow,
	// so this is much larger than RequestTimeout.
	GradingTimeout time.Duration `mapstructure:"grading_timeout" validate:"gt=0"`
}

// AuthConfig contains client-side session settings.
type AuthConfig struct {
	// CredentialsFile is where the terminal client caches the token and
	// user between runs. Empty means the default under the user config dir.
	CredentialsFile string `mapstructure:"credentials_file"`
}

// GatewayConfig contains settings for the browser-facing study gateway.
type GatewayConfig struct {
	SessionTTL        time.Duration `mapstructure:"session_ttl"          validate:"gt=0"`
	AuthRatePerSecond float64       `mapstructure:"auth_rate_per_second" validate:"gt=0"`
	AuthBurst         int           `mapstructure:"auth_burst"           validate:"gt=0"`
}
