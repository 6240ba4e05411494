// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the nestsim service configuration.
type Config struct {
	DBPath    string `env:"NESTSIM_DB" envDefault:"data/nest.db"`
	Port      int    `env:"NESTSIM_PORT" envDefault:"8080"`
	AdminKey  string `env:"NESTSIM_ADMIN_KEY"`  // Bearer token for mutating endpoints. Empty = disabled.
	TiersPath string `env:"NESTSIM_TIERS"`      // YAML catalog path. Empty = compiled-in defaults.
	LogLevel  string `env:"NESTSIM_LOG_LEVEL" envDefault:"info"`

	TickInterval time.Duration `env:"NESTSIM_TICK_INTERVAL" envDefault:"1s"`
	SaveInterval time.Duration `env:"NESTSIM_SAVE_INTERVAL" envDefault:"5m"`

	// Seed for deterministic offer generation. 0 selects crypto entropy
	// (or random.org when a key is set).
	Seed         int64  `env:"NESTSIM_SEED" envDefault:"0"`
	RandomOrgKey string `env:"RANDOM_ORG_KEY"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
