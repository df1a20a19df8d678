// Package config provides configuration management for seotrack with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadOptions)
//  2. Environment variables (SEOTRACK_* prefix)
//  3. Config file (<config dir>/config.yaml or --config)
//  4. Built-in defaults
//
// This package may import internal/errors but no other internal package.
package config

import "time"

// Config is the root configuration structure for seotrack.
type Config struct {
	// DataDir holds the database, guest data, attachments, logs and session.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// User signs in as this identity, overriding the session file.
	User string `yaml:"user" mapstructure:"user"`

	Database    DatabaseConfig    `yaml:"database" mapstructure:"database"`
	Attachments AttachmentsConfig `yaml:"attachments" mapstructure:"attachments"`
	Guest       GuestConfig       `yaml:"guest" mapstructure:"guest"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// DatabaseConfig configures the signed-in relational store.
type DatabaseConfig struct {
	// Path of the sqlite file. Default: <data_dir>/seotrack.db
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long a statement waits on a locked database.
	BusyTimeout time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout"`
}

// AttachmentsConfig configures the signed-in attachment store.
type AttachmentsConfig struct {
	// Dir is the bucket root. Default: <data_dir>/attachments
	Dir string `yaml:"dir" mapstructure:"dir"`

	// BaseURL prefixes attachment references. Empty means file:// URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// MaxBytes caps a single upload in both modes.
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// GuestConfig configures guest-mode persistence.
type GuestConfig struct {
	// Key names the guest blob.
	Key string `yaml:"key" mapstructure:"key"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// MetricsConfig toggles in-process metric collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}
