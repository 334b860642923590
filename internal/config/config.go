// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Environment variables read by Load.
const (
	EnvDBPath         = "MONTAZA_DB"
	EnvAddr           = "MONTAZA_ADDR"
	EnvBlobDir        = "MONTAZA_BLOB_DIR"
	EnvLogFile        = "MONTAZA_LOG"
	EnvLogLevel       = "MONTAZA_LOG_LEVEL"
	EnvDigestSchedule = "MONTAZA_DIGEST_SCHEDULE"
	EnvAllowedOrigins = "MONTAZA_ALLOWED_ORIGINS"
)

// Config holds the settings of a montaza instance.
type Config struct {
	DBPath         string
	Addr           string
	BlobDir        string
	LogFile        string
	LogLevel       string
	DigestSchedule string
	AllowedOrigins []string
}

// Load reads envFile, or .env if present when envFile is empty, then builds a Config
// from MONTAZA_* variables with defaults for anything unset.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		// Only the implicit .env is optional.
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		DBPath:         getenvWithDefault(EnvDBPath, "montaza.sqlite3"),
		Addr:           getenvWithDefault(EnvAddr, ":8080"),
		BlobDir:        getenvWithDefault(EnvBlobDir, "photos"),
		LogFile:        os.Getenv(EnvLogFile),
		LogLevel:       getenvWithDefault(EnvLogLevel, "info"),
		DigestSchedule: getenvWithDefault(EnvDigestSchedule, "0 7 * * *"),
		AllowedOrigins: splitList(os.Getenv(EnvAllowedOrigins)),
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DBPath == "" {
		return errors.New("database path must not be empty")
	}
	if c.Addr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.BlobDir == "" {
		return errors.New("blob directory must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.DigestSchedule != "" {
		if _, err := cron.ParseStandard(c.DigestSchedule); err != nil {
			return fmt.Errorf("invalid digest schedule %q: %w", c.DigestSchedule, err)
		}
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
