// Package config loads engine configuration from the environment, with
// an optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries deployment settings for the resolution engine.
type Config struct {
	RedisAddr     string
	RedisPassword string
	PostgresDSN   string

	// DecisionTimeout overrides the per-kind default when > 0.
	DecisionTimeout time.Duration
	// RedrawCycles overrides the default one redraw cycle when > 0.
	RedrawCycles int
	// LogLevel is a logrus level name ("info", "debug", …).
	LogLevel string
}

// Load reads .env if present, then the environment. Missing values fall
// back to defaults; Redis and Postgres stay disabled when unset.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		RedisAddr:     os.Getenv("DECKHAND_REDIS_ADDR"),
		RedisPassword: os.Getenv("DECKHAND_REDIS_PASSWORD"),
		PostgresDSN:   os.Getenv("DECKHAND_POSTGRES_DSN"),
		LogLevel:      os.Getenv("DECKHAND_LOG_LEVEL"),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if v := os.Getenv("DECKHAND_DECISION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("DECKHAND_DECISION_TIMEOUT: %w", err)
		}
		cfg.DecisionTimeout = d
	}
	if v := os.Getenv("DECKHAND_REDRAW_CYCLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("DECKHAND_REDRAW_CYCLES: invalid value %q", v)
		}
		cfg.RedrawCycles = n
	}
	return cfg, nil
}
