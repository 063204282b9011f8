package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays TENWORDS_* environment variables onto cfg.
// Values that do not parse are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("TENWORDS_HOST"); v != "" {
		cfg.Application.Host = v
	}
	if v := os.Getenv("TENWORDS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Application.Port = n
		}
	}
	if v := os.Getenv("TENWORDS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TENWORDS_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TENWORDS_DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.MaxOpenConns = n
		}
	}
	if v := os.Getenv("TENWORDS_DB_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Database.BusyTimeout = Duration(d)
		}
	}
	if v := os.Getenv("TENWORDS_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rotation.BatchSize = n
		}
	}
	if v := os.Getenv("TENWORDS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TENWORDS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
