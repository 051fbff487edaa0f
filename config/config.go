package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradejournal/internal/db"
	"github.com/rustyeddy/tradejournal/internal/logging"
)

// Config is the complete tradejournal configuration
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// DatabaseConfig locates the SQLite database
type DatabaseConfig struct {
	Path        string `json:"path" yaml:"path"`
	BusyTimeout string `json:"busy_timeout" yaml:"busy_timeout"` // e.g. "5s"
}

// ServerConfig contains HTTP API parameters
type ServerConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  string `json:"token_ttl" yaml:"token_ttl"` // e.g. "24h"
}

// LogConfig controls the console logger
type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	NoColor bool   `json:"no_color" yaml:"no_color"`
}

// JournalConfig contains ledger defaults
type JournalConfig struct {
	DefaultCurrency string `json:"default_currency" yaml:"default_currency"`
}

// DB converts the section into connection settings.
func (d DatabaseConfig) DB() (db.Config, error) {
	cfg := db.DefaultConfig()
	if d.Path != "" {
		cfg.Path = d.Path
	}
	if d.BusyTimeout != "" {
		timeout, err := time.ParseDuration(d.BusyTimeout)
		if err != nil {
			return db.Config{}, fmt.Errorf("database.busy_timeout: %w", err)
		}
		cfg.BusyTimeout = timeout
	}
	return cfg, nil
}

// TTL parses the token lifetime; empty means 24h.
func (s ServerConfig) TTL() (time.Duration, error) {
	if s.TokenTTL == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(s.TokenTTL)
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths, JSON otherwise
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file holds the JWT secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := c.Database.DB(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	ttl, err := c.Server.TTL()
	if err != nil {
		return fmt.Errorf("server.token_ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("server.token_ttl must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if len(c.Journal.DefaultCurrency) != 3 {
		return fmt.Errorf("journal.default_currency must be a 3 letter code")
	}
	return nil
}

// Default returns a configuration with sensible defaults. The JWT secret is
// left empty; NewSecret fills one in for `config init`.
func Default() *Config {
	dbc := db.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:        dbc.Path,
			BusyTimeout: dbc.BusyTimeout.String(),
		},
		Server: ServerConfig{
			Addr:     ":8080",
			TokenTTL: "24h",
		},
		Log: LogConfig{
			Level: "info",
		},
		Journal: JournalConfig{
			DefaultCurrency: "USD",
		},
	}
}

// NewSecret returns a random hex string suitable for server.jwt_secret.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
