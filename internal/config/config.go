package config

import (
	"fmt"
	"os"
)

// Supported values for DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	MetricsAddr    string
	DatabaseDriver string
	DatabaseURL    string
	NATSURL        string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		DatabaseDriver: os.Getenv("DATABASE_DRIVER"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		NATSURL:        os.Getenv("NATS_URL"),
	}
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = DriverSQLite
	}

	// Validation
	var missing []string
	if cfg.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	if cfg.LogLevel == "" {
		missing = append(missing, "LOG_LEVEL")
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env vars: %v", missing)
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverPGX:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}
