// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MemoryDB selects the in-process store instead of sqlite.
const MemoryDB = ":memory:"

// Config holds the local runtime configuration.
type Config struct {
	DBPath           string        `env:"DPCQ_DB_PATH"           envDefault:"dpcq.db"`
	DataDir          string        `env:"DPCQ_DATA_DIR"`
	Seed             int64         `env:"DPCQ_SEED"`
	LogLevel         string        `env:"DPCQ_LOG_LEVEL"         envDefault:"info"`
	LogFile          string        `env:"DPCQ_LOG_FILE"`
	Group            string        `env:"DPCQ_GROUP"             envDefault:"local"`
	UserID           string        `env:"DPCQ_USER_ID"           envDefault:"player"`
	UserName         string        `env:"DPCQ_USER_NAME"         envDefault:"萧炎"`
	Admins           []string      `env:"DPCQ_ADMINS"            envSeparator:","`
	NarrationTimeout time.Duration `env:"DPCQ_NARRATION_TIMEOUT" envDefault:"3s"`
	TickInterval     time.Duration `env:"DPCQ_TICK_INTERVAL"     envDefault:"30s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("DPCQ_TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	if strings.TrimSpace(cfg.Group) == "" {
		return Config{}, fmt.Errorf("DPCQ_GROUP is required")
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Memory reports whether the in-process store was requested.
func (c Config) Memory() bool {
	return strings.TrimSpace(c.DBPath) == MemoryDB
}

// Level is the configured slog level.
func (c Config) Level() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

// IsAdmin reports whether id may run admin commands.
func (c Config) IsAdmin(id string) bool {
	return slices.Contains(c.Admins, id)
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("DPCQ_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
