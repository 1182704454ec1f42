// Package config loads process configuration and host facts from the
// environment.
package config

import (
	"fmt"
	"strings"

	"sessionlog/internal/model"
	"sessionlog/internal/store"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config is the process configuration.
type Config struct {
	MaxEntries int    `env:"SESSIONLOG_MAX_ENTRIES" envDefault:"1000"`
	Enabled    bool   `env:"SESSIONLOG_ENABLED" envDefault:"false"`
	Store      string `env:"SESSIONLOG_STORE" envDefault:"file"`
	DataDir    string `env:"SESSIONLOG_DATA_DIR"`
	Listen     string `env:"SESSIONLOG_LISTEN"`
	LogLevel   string `env:"SESSIONLOG_LOG_LEVEL" envDefault:"INFO"`
	LogFormat  string `env:"SESSIONLOG_LOG_FORMAT" envDefault:"text"`
	Host       Host
}

// Host holds environment facts supplied by the embedding host.
type Host struct {
	Build        string `env:"SESSIONLOG_BUILD"`
	Version      string `env:"SESSIONLOG_VERSION"`
	AddonVersion string `env:"SESSIONLOG_ADDON_VERSION"`
	User         string `env:"SESSIONLOG_USER"`
	Realm        string `env:"SESSIONLOG_REALM"`
	Guild        string `env:"SESSIONLOG_GUILD"`
}

// Facts returns the host facts.
func (h Host) Facts() model.Facts {
	return model.Facts{
		Build:        h.Build,
		Version:      h.Version,
		AddonVersion: h.AddonVersion,
		User:         h.User,
		Realm:        h.Realm,
		Guild:        h.Guild,
	}
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and normalizes enumerations.
func (c *Config) Validate() error {
	if c.MaxEntries < 0 {
		return fmt.Errorf("max entries must be non-negative, got %d", c.MaxEntries)
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = store.DefaultMaxEntries
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unsupported store %q", c.Store)
	}
	c.LogFormat = strings.ToLower(c.LogFormat)
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	return nil
}
