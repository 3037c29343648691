// Package config provides YAML-based configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// AppConfig is the root configuration document.
type AppConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Sessions     SessionConfig      `yaml:"sessions"`
	Import       ImportConfig       `yaml:"import"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                int      `yaml:"port" env:"PORT"`
	BindAddress         string   `yaml:"bindAddress" env:"BIND_ADDRESS"`
	EnableCORS          bool     `yaml:"enableCors"`
	AllowOrigins        []string `yaml:"allowOrigins"`
	ReadTimeoutSeconds  int      `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int      `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int      `yaml:"idleTimeoutSeconds"`
	BodyLimit           string   `yaml:"bodyLimit"`
	EnableCompression   bool     `yaml:"enableCompression"`
	CompressionLevel    int      `yaml:"compressionLevel"`
}

// SessionConfig bounds the in-memory editing sessions.
type SessionConfig struct {
	MaxSessions            int `yaml:"maxSessions"`
	TimeoutMinutes         int `yaml:"timeoutMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// ImportConfig contains upload settings.
type ImportConfig struct {
	MaxDocumentBytes  int64 `yaml:"maxDocumentBytes"`
	JobTimeoutSeconds int   `yaml:"jobTimeoutSeconds"`
	JobRetentionMins  int   `yaml:"jobRetentionMinutes"`
}

// CapabilitiesConfig controls GetCapabilities lookups during import.
type CapabilitiesConfig struct {
	Enabled         bool `yaml:"enabled" env:"CAPABILITIES_ENABLED"`
	TimeoutSeconds  int  `yaml:"timeoutSeconds"`
	Concurrency     int  `yaml:"concurrency"`
	CacheSize       int  `yaml:"cacheSize"`
	CacheTTLMinutes int  `yaml:"cacheTtlMinutes"`
}

// LoggingConfig selects the log level and the rotating log file.
type LoggingConfig struct {
	Level          string `yaml:"level" env:"LOG_LEVEL"`
	Directory      string `yaml:"directory" env:"LOG_DIR"`
	MaxSizeMB      int    `yaml:"maxSizeMB"`
	MaxBackups     int    `yaml:"maxBackups"`
	MaxAgeDays     int    `yaml:"maxAgeDays"`
	RequestLogging bool   `yaml:"requestLogging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                8089,
			BindAddress:         "0.0.0.0",
			EnableCORS:          true,
			AllowOrigins:        []string{"*"},
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 30,
			IdleTimeoutSeconds:  120,
			BodyLimit:           "64M",
			EnableCompression:   true,
			CompressionLevel:    5,
		},
		Sessions: SessionConfig{
			MaxSessions:            100,
			TimeoutMinutes:         120,
			CleanupIntervalMinutes: 5,
		},
		Import: ImportConfig{
			MaxDocumentBytes:  32 << 20,
			JobTimeoutSeconds: 120,
			JobRetentionMins:  30,
		},
		Capabilities: CapabilitiesConfig{
			Enabled:         true,
			TimeoutSeconds:  10,
			Concurrency:     4,
			CacheSize:       256,
			CacheTTLMinutes: 15,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Directory:      "./logs",
			MaxSizeMB:      64,
			MaxBackups:     5,
			MaxAgeDays:     14,
			RequestLogging: true,
		},
	}
}

// LoadConfig reads the configuration file, creating it with defaults on
// first run, then applies environment overrides. Relative directories are
// resolved against the file's location.
func LoadConfig(configPath string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnvironmentOverrides(); err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(configPath))
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# Map configuration builder\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, out...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvironmentOverrides lets PORT, BIND_ADDRESS, LOG_LEVEL, LOG_DIR and
// CAPABILITIES_ENABLED override file values.
func (c *AppConfig) ApplyEnvironmentOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *AppConfig) resolvePaths(configDir string) {
	if c.Logging.Directory != "" && !filepath.IsAbs(c.Logging.Directory) {
		c.Logging.Directory = filepath.Join(configDir, c.Logging.Directory)
	}
}

// ServerAddr returns the listen address.
func (c *AppConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SessionTimeout is how long an idle session is kept.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Sessions.TimeoutMinutes) * time.Minute
}

// CleanupInterval is the period of the session and job sweeps.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Sessions.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Sessions.CleanupIntervalMinutes) * time.Minute
}
