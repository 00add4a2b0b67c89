package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDriver   = "sqlite3"
	defaultSQLite   = "playoffs.db?_journal_mode=WAL"
	defaultPort     = 8080
	defaultSchedule = "@every 5m"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	ServerPort     int
	// Cron spec for the advance job, empty disables it
	AdvanceSchedule string
	LogLevel        slog.Level
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseDriver:  strings.TrimSpace(os.Getenv("DATABASE_DRIVER")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ServerPort:      defaultPort,
		AdvanceSchedule: defaultSchedule,
	}

	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = defaultDriver
	}
	switch cfg.DatabaseDriver {
	case "sqlite3":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = defaultSQLite
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		if port <= 0 || port > 65535 {
			return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
		}
		cfg.ServerPort = port
	}

	// Set but empty turns the job off
	if schedule, ok := os.LookupEnv("ADVANCE_SCHEDULE"); ok {
		cfg.AdvanceSchedule = strings.TrimSpace(schedule)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
