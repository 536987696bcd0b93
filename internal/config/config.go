// Package config loads daemon configuration from a YAML file overridden
// by TRYLL_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Skizziik/tryll-dataset-builder/internal/history"
	"github.com/Skizziik/tryll-dataset-builder/internal/logging"
	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

// Validation errors.
var (
	ErrInvalidPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidHistory   = errors.New("history limit must be positive")
	ErrConfigFileTooBig = errors.New("config file exceeds size limit")
)

// ServerConfig configures the REST surface.
type ServerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// StoreConfig configures the local document store.
type StoreConfig struct {
	// DataDir holds one JSON document per project plus histories.
	DataDir string `koanf:"data_dir"`

	// HistoryLimit caps commits retained per project.
	HistoryLimit int `koanf:"history_limit"`

	// DefaultLicense is applied to chunks without one.
	DefaultLicense string `koanf:"default_license"`

	// ImportCategory is the fallback category for imports.
	ImportCategory string `koanf:"import_category"`

	// Watch enables the fsnotify data-directory monitor.
	Watch bool `koanf:"watch"`
}

// RemoteConfig configures remote-proxy mode. When URL is set, tool calls
// are forwarded to the remote service instead of the local store.
type RemoteConfig struct {
	URL string `koanf:"url"`
}

// TelemetryConfig configures optional OTLP export.
type TelemetryConfig struct {
	// Endpoint is the OTLP/HTTP collector address. Empty disables export.
	Endpoint string `koanf:"endpoint"`

	// ServiceName overrides the reported service.name resource.
	ServiceName string `koanf:"service_name"`
}

// Config is the full daemon configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Remote    RemoteConfig    `koanf:"remote"`
	Logging   logging.Config  `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := "data"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "tryll", "projects")
	}
	return &Config{
		Server: ServerConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    8765,
		},
		Store: StoreConfig{
			DataDir:        dataDir,
			HistoryLimit:   history.DefaultLimit,
			DefaultLicense: store.DefaultLicense,
			ImportCategory: "Imported",
			Watch:          true,
		},
		Logging: *logging.DefaultConfig(),
		Telemetry: TelemetryConfig{
			ServiceName: "trylld",
		},
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Store.HistoryLimit <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHistory, c.Store.HistoryLimit)
	}
	if c.Store.DataDir == "" {
		return errors.New("store data_dir is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}
