package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variable overrides,
// e.g. SYNTH_BACKEND_BASE_URL.
const EnvPrefix = "SYNTH"

// Defaults applied before any file or environment source.
const (
	DefaultPort              = 3000
	DefaultLogLevel          = "info"
	DefaultBackendURL        = "http://localhost:8080/api"
	DefaultRequestTimeout    = 15 * time.Second
	DefaultGradingTimeout    = 90 * time.Second
	DefaultSessionTTL        = 2 * time.Hour
	DefaultAuthRatePerSecond = 1.0
	DefaultAuthBurst         = 10
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file instead of
// searching for config.yaml in the working directory. A missing explicit
// file is an error; a missing implicit one is not.
func LoadFrom(path string) (*Config, error) {
	// A .env file is a development convenience; its absence is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.log_level", DefaultLogLevel)
	v.SetDefault("backend.base_url", DefaultBackendURL)
	v.SetDefault("backend.request_timeout", DefaultRequestTimeout)
	v.SetDefault("backend.grading_timeout", DefaultGradingTimeout)
	v.SetDefault("auth.credentials_file", "")
	v.SetDefault("gateway.session_ttl", DefaultSessionTTL)
	v.SetDefault("gateway.auth_rate_per_second", DefaultAuthRatePerSecond)
	v.SetDefault("gateway.auth_burst", DefaultAuthBurst)
}
