package config

import (
	"os"
	"path/filepath"

	"github.com/tgienger/seotrack/internal/errors"
)

// AppName names the data and config directories.
const AppName = "seotrack"

// DefaultDataDir returns $XDG_DATA_HOME/seotrack, falling back to
// ~/.local/share/seotrack.
func DefaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get home directory")
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, AppName), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/seotrack, falling back to
// ~/.config/seotrack.
func ConfigDir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to get home directory")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName), nil
}

// ConfigPath returns the default config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LogPath returns the log file location inside the data dir.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", AppName+".log")
}

// SessionPath returns the identity session file location.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.json")
}
