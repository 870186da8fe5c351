package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the configuration of gridctl.
type Config struct {
	// Storage settings
	DBPath string `json:"db_path"`
	Table  string `json:"table"`

	// Collaborator call timeouts
	FetchTimeout Duration `json:"fetch_timeout"`
	SaveTimeout  Duration `json:"save_timeout"`

	// Logging settings
	LogLevel string `json:"log_level"`
}

// Duration is a wrapper around time.Duration for JSON marshaling
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return fmt.Errorf("invalid duration")
	}
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DBPath:       "./assets.sqlite",
		Table:        "assets",
		FetchTimeout: Duration{30 * time.Second},
		SaveTimeout:  Duration{60 * time.Second},
		LogLevel:     "info",
	}
}

// Load loads configuration from a JSON file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Table == "" {
		return fmt.Errorf("table is required")
	}
	if c.FetchTimeout.Duration <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.SaveTimeout.Duration <= 0 {
		return fmt.Errorf("save timeout must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// Path returns the configuration file path, honouring GRIDCTL_CONFIG
func Path() string {
	if path := os.Getenv("GRIDCTL_CONFIG"); path != "" {
		return path
	}
	return "config/gridctl.json"
}
