package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/compass/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Database        DatabaseConfig
	HTTP            HTTPConfig
	Auth            AuthConfig
	Planner         PlannerConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"COMPASS_SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"COMPASS_HTTP_HOST"`
	Port              string        `env:"COMPASS_HTTP_PORT" default:"8080"`
	ReadTimeout       time.Duration `env:"COMPASS_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `env:"COMPASS_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `env:"COMPASS_HTTP_IDLE_TIMEOUT" default:"60s"`
	ReadHeaderTimeout time.Duration `env:"COMPASS_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	MaxHeaderBytes    int           `env:"COMPASS_HTTP_MAX_HEADER_BYTES" default:"1048576"`
	MaxBodyBytes      int64         `env:"COMPASS_HTTP_MAX_BODY_BYTES" default:"1048576"`

	// TLS is served when both files are set.
	TLSCertFile string `env:"COMPASS_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"COMPASS_TLS_KEY_FILE"`
}

// Addr returns the listen address.
func (c *HTTPConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// TLSEnabled reports whether a certificate is configured.
func (c *HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if c.Port == "" {
		return errors.New("COMPASS_HTTP_PORT is required")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("COMPASS_TLS_CERT_FILE and COMPASS_TLS_KEY_FILE must be set together")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("COMPASS_HTTP_MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	Secret string        `env:"COMPASS_AUTH_SECRET"`
	Issuer string        `env:"COMPASS_AUTH_ISSUER" default:"compass"`
	Leeway time.Duration `env:"COMPASS_AUTH_LEEWAY" default:"30s"`
}

// ErrSecretRequired is returned when no signing secret is configured.
var ErrSecretRequired = errors.New("COMPASS_AUTH_SECRET is required")

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Secret == "" {
		return ErrSecretRequired
	}
	return nil
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
