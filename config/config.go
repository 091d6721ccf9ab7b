// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds settings shared by the CLI and the seed tool.
type Config struct {
	DBPath      string        `env:"BOOKCLUB_DB" envDefault:"bookclub.db"`
	BusyTimeout time.Duration `env:"BOOKCLUB_BUSY_TIMEOUT" envDefault:"5s"`
	JWTSecret   string        `env:"BOOKCLUB_JWT_SECRET"`
	TokenTTL    time.Duration `env:"BOOKCLUB_TOKEN_TTL" envDefault:"24h"`
	Token       string        `env:"BOOKCLUB_TOKEN"`
	LogLevel    string        `env:"BOOKCLUB_LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"BOOKCLUB_LOG_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads dotenvPath (when it exists) into the environment without
// overriding variables that are already set, then parses Config.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
