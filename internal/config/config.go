// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/aaltino/hubempresas-sub001/internal/actionplan"
)

// Config is the process configuration. Every field has a default.
type Config struct {
	// DataDir holds the SQLite database. Empty means ~/.progression.
	DataDir  string `env:"PROGRESSION_DATA_DIR"`
	RulesDir string `env:"PROGRESSION_RULES_DIR" envDefault:"rules"`
	LogMode  string `env:"PROGRESSION_LOG_MODE" envDefault:"dev"`

	PlanMaxPerBlock     int     `env:"PROGRESSION_PLAN_MAX_PER_BLOCK" envDefault:"3"`
	PlanMaxItems        int     `env:"PROGRESSION_PLAN_MAX_ITEMS" envDefault:"10"`
	DominantWeight      float64 `env:"PROGRESSION_DOMINANT_WEIGHT" envDefault:"0.25"`
	HighPriorityBelow   float64 `env:"PROGRESSION_HIGH_PRIORITY_BELOW" envDefault:"50"`
	MediumPriorityBelow float64 `env:"PROGRESSION_MEDIUM_PRIORITY_BELOW" envDefault:"80"`
}

// userHomeDir is a package-level var for test injection.
var userHomeDir = os.UserHomeDir

// Load parses the environment, fills derived defaults and validates.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := userHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".progression")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PlanConfig maps the plan settings onto the action-plan generator.
// Due-date horizons keep their defaults.
func (c Config) PlanConfig() actionplan.Config {
	pc := actionplan.DefaultConfig()
	pc.DominantWeight = c.DominantWeight
	pc.HighBelow = c.HighPriorityBelow
	pc.MediumBelow = c.MediumPriorityBelow
	pc.MaxPerGap = c.PlanMaxPerBlock
	pc.MaxItems = c.PlanMaxItems
	return pc
}

// Validate rejects unusable settings.
func (c Config) Validate() error {
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("PROGRESSION_LOG_MODE must be dev or prod, got %q", c.LogMode)
	}
	if c.RulesDir == "" {
		return fmt.Errorf("PROGRESSION_RULES_DIR must not be empty")
	}
	if err := c.PlanConfig().Validate(); err != nil {
		return fmt.Errorf("action plan settings: %w", err)
	}
	return nil
}
