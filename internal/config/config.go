// Package config loads tenwords settings from defaults, a JSON or YAML file
// and TENWORDS_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Application Application `json:"application" yaml:"application"`
	Database    Database    `json:"database" yaml:"database"`
	Rotation    Rotation    `json:"rotation" yaml:"rotation"`
	Log         Log         `json:"log" yaml:"log"`
}

// Application holds the HTTP listener settings.
type Application struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// Database selects the store backend.
type Database struct {
	Driver       string   `json:"driver" yaml:"driver"` // sqlite | postgres
	DSN          string   `json:"dsn" yaml:"dsn"`
	MaxOpenConns int      `json:"maxOpenConns" yaml:"maxOpenConns"`
	BusyTimeout  Duration `json:"busyTimeout" yaml:"busyTimeout"`
}

// Rotation controls word serving.
type Rotation struct {
	BatchSize int `json:"batchSize" yaml:"batchSize"`
}

// Log controls process logging.
type Log struct {
	Level  string `json:"level" yaml:"level"`   // debug | info | warn | error
	Format string `json:"format" yaml:"format"` // text | json
}

// Duration is a time.Duration that reads "5s"-style strings from files.
type Duration time.Duration

func (d *Duration) set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.set(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.set(node.Value)
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Application: Application{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Database: Database{
			Driver:      "sqlite",
			DSN:         "tenwords.db",
			BusyTimeout: Duration(10 * time.Second),
		},
		Rotation: Rotation{
			BatchSize: 10,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) over the
// defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Address returns the host:port the HTTP server listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Application.Host, strconv.Itoa(c.Application.Port))
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Application.Port < 1 || c.Application.Port > 65535 {
		errs = append(errs, fmt.Errorf("application.port %d out of range", c.Application.Port))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: use sqlite|postgres", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required for postgres"))
	}
	if c.Database.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("database.maxOpenConns %d is negative", c.Database.MaxOpenConns))
	}
	if c.Rotation.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("rotation.batchSize %d must be positive", c.Rotation.BatchSize))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: use debug|info|warn|error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: use text|json", c.Log.Format))
	}
	return errors.Join(errs...)
}
