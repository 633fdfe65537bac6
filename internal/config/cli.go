package config

import (
	"fmt"

	"github.com/rezkam/compass/internal/env"
)

// CLIConfig holds configuration for compassctl. The signing secret is optional
// here and checked only by the commands that need it.
type CLIConfig struct {
	Database   DatabaseConfig
	Planner    PlannerConfig
	AuthSecret string `env:"COMPASS_AUTH_SECRET"`
	AuthIssuer string `env:"COMPASS_AUTH_ISSUER" default:"compass"`
}

// LoadCLIConfig loads and validates CLI configuration from environment.
func LoadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load cli config: %w", err)
	}

	return cfg, nil
}
