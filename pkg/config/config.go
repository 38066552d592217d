package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Storage   StorageConfig
	Report    ReportConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
	Currency  string
}

type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string // SQLite file
	DSN    string // PostgreSQL connection string
}

type StorageConfig struct {
	ArchiveDir string // empty disables statement archiving
}

type ReportConfig struct {
	Dir string
}

type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

type TelemetryConfig struct {
	MetricsFile string // prometheus textfile; empty disables
	TraceFile   string // spans as JSON lines; empty disables
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("CCPARSER_DB_DRIVER", "sqlite")),
			Path:   getEnv("CCPARSER_DB_PATH", "cc_parser.db"),
			DSN:    getEnv("CCPARSER_DB_DSN", ""),
		},
		Storage: StorageConfig{
			ArchiveDir: getEnv("CCPARSER_ARCHIVE_DIR", ""),
		},
		Report: ReportConfig{
			Dir: getEnv("CCPARSER_REPORT_DIR", "."),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		Telemetry: TelemetryConfig{
			MetricsFile: getEnv("CCPARSER_METRICS_FILE", ""),
			TraceFile:   getEnv("CCPARSER_TRACE_FILE", ""),
		},
		Currency: strings.ToUpper(getEnv("CCPARSER_CURRENCY", "INR")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations Load cannot default away.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("CCPARSER_DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("CCPARSER_DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported CCPARSER_DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.Logging.Format)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
