package util

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings. Environment variables are read first; flags override them.
type Config struct {
	Seed       string        `env:"UNDERCITY_SEED"`
	DSN        string        `env:"DATABASE_URL"`
	SQLitePath string        `env:"UNDERCITY_SQLITE" envDefault:"undercity.db"`
	LevelsPath string        `env:"UNDERCITY_LEVELS"`
	EventsPath string        `env:"UNDERCITY_EVENTS"`
	Tick       time.Duration `env:"UNDERCITY_TICK" envDefault:"1s"`
	Theme      string        `env:"UNDERCITY_THEME" envDefault:"bunker"`
	LogLevel   string        `env:"UNDERCITY_LOG_LEVEL" envDefault:"warn"`
	City       string        `env:"UNDERCITY_CITY"`
	Strategy   string        `env:"UNDERCITY_STRATEGY" envDefault:"balanced"`
	BirthRate  int           `env:"UNDERCITY_BIRTH_RATE" envDefault:"10"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	return cfg, nil
}

// SlogLevel maps the configured level name; unknown names mean warn.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}
