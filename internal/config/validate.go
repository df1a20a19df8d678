package config

import (
	"github.com/rs/zerolog"

	"github.com/tgienger/seotrack/internal/errors"
)

// Validate checks the configuration for invalid values.
// It returns an error describing the first validation failure found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.Wrap(errors.ErrConfigInvalid, "config is nil")
	}
	if cfg.DataDir == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "data_dir must not be empty")
	}
	if cfg.Database.Path == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "database.path must not be empty")
	}
	if cfg.Database.BusyTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"database.busy_timeout must be positive, got %s", cfg.Database.BusyTimeout)
	}
	if cfg.Attachments.Dir == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "attachments.dir must not be empty")
	}
	if cfg.Attachments.MaxBytes <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"attachments.max_bytes must be positive, got %d", cfg.Attachments.MaxBytes)
	}
	if cfg.Guest.Key == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "guest.key must not be empty")
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil || cfg.Log.Level == "" {
		return errors.Wrapf(errors.ErrConfigInvalid, "log.level %q is not a known level", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "log.max_size_mb must be positive, got %d", cfg.Log.MaxSizeMB)
	}
	if cfg.Log.MaxBackups < 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "log.max_backups must not be negative, got %d", cfg.Log.MaxBackups)
	}
	return nil
}
