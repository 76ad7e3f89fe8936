// Package config provides the configuration schema and loader for the
// ToKnowAI transcript service.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the service.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration wraps [time.Duration] so YAML values can be written in the usual
// "30s" / "5m" notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a standard [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Source  SourceConfig  `yaml:"source"`
	Cache   CacheConfig   `yaml:"cache"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// ServerConfig holds network and logging settings for the API server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// StorageConfig selects the persistent transcript store.
type StorageConfig struct {
	// PostgresDSN is the connection string for the transcript database.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// SourceConfig points at the content host serving raw Mux transcript files.
type SourceConfig struct {
	// BaseURL is the URL prefix under which transcript source files are
	// published (e.g., "https://cdn.toknowai.pl/trans").
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single raw transcript fetch. Zero selects the
	// fetcher's default.
	Timeout Duration `yaml:"timeout"`
}

// CacheConfig tunes the in-process read cache of the fetch facade.
type CacheConfig struct {
	// FreshFor is the freshness window for cached reads. Zero selects the
	// default of 5 minutes.
	FreshFor Duration `yaml:"fresh_for"`
}

// CatalogConfig locates the course catalog definition.
type CatalogConfig struct {
	// Path is the filesystem path of the catalog YAML file.
	Path string `yaml:"path"`
}
