// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DefaultPort is the listen port used when PORT is unset or invalid.
	DefaultPort = 8000

	// DefaultDatabaseURL is the store connection string used when
	// DATABASE_URL is unset.
	DefaultDatabaseURL = "mongodb://localhost:27017"

	// DefaultDatabaseName is the database name used when DATABASE_NAME
	// is unset.
	DefaultDatabaseName = "sitewatch"
)

// Config holds the environment-derived settings for the process.
type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseName string

	// Presence flags for the two database variables, reported by the
	// diagnostic endpoint. Values are never exposed, only presence.
	DatabaseURLSet  bool
	DatabaseNameSet bool
}

// FromEnv builds a Config from PORT, DATABASE_URL and DATABASE_NAME.
// A .env file in the working directory is honored when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:         DefaultPort,
		DatabaseURL:  DefaultDatabaseURL,
		DatabaseName: DefaultDatabaseName,
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port <= 65535 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
		cfg.DatabaseURLSet = true
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.DatabaseName = v
		cfg.DatabaseNameSet = true
	}
	return cfg
}
