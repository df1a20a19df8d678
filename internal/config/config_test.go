package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/seotrack/internal/errors"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(context.Background(), LoadOptions{})
	require.NoError(t, err)

	dataDir := filepath.Join(home, "data", AppName)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "seotrack.db"), cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	assert.Equal(t, filepath.Join(dataDir, "attachments"), cfg.Attachments.Dir)
	assert.Equal(t, int64(10<<20), cfg.Attachments.MaxBytes)
	assert.Equal(t, "seotrack-guest", cfg.Guest.Key)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.User)
	assert.Equal(t, filepath.Join(dataDir, "session.json"), cfg.SessionPath())
	assert.Equal(t, filepath.Join(dataDir, "logs", "seotrack.log"), cfg.LogPath())
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)
	cfgDir := filepath.Join(home, "config", AppName)
	require.NoError(t, os.MkdirAll(cfgDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(`
user: from-file
database:
  busy_timeout: 2s
log:
  level: debug
guest:
  key: file-key
`), 0o600))

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load(context.Background(), LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.User)
		assert.Equal(t, 2*time.Second, cfg.Database.BusyTimeout)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "file-key", cfg.Guest.Key)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("SEOTRACK_USER", "from-env")
		t.Setenv("SEOTRACK_GUEST_KEY", "env-key")
		cfg, err := Load(context.Background(), LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.User)
		assert.Equal(t, "env-key", cfg.Guest.Key)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("SEOTRACK_USER", "from-env")
		dataDir := t.TempDir()
		cfg, err := Load(context.Background(), LoadOptions{User: "from-flag", DataDir: dataDir})
		require.NoError(t, err)
		assert.Equal(t, "from-flag", cfg.User)
		assert.Equal(t, filepath.Join(dataDir, "seotrack.db"), cfg.Database.Path)
	})
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attachments:\n  max_bytes: 0\n"), 0o600))

	_, err := Load(context.Background(), LoadOptions{ConfigFile: path})
	assert.ErrorIs(t, err, errors.ErrConfigInvalid)

	_, err = Load(context.Background(), LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DataDir:     "/tmp/seo",
			Database:    DatabaseConfig{Path: "/tmp/seo/seotrack.db", BusyTimeout: time.Second},
			Attachments: AttachmentsConfig{Dir: "/tmp/seo/attachments", MaxBytes: 1},
			Guest:       GuestConfig{Key: "k"},
			Log:         LogConfig{Level: "warn", MaxSizeMB: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }},
		{name: "empty db path", mutate: func(c *Config) { c.Database.Path = "" }},
		{name: "zero busy timeout", mutate: func(c *Config) { c.Database.BusyTimeout = 0 }},
		{name: "negative max bytes", mutate: func(c *Config) { c.Attachments.MaxBytes = -1 }},
		{name: "empty guest key", mutate: func(c *Config) { c.Guest.Key = "" }},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
		{name: "zero log size", mutate: func(c *Config) { c.Log.MaxSizeMB = 0 }},
	}

	require.NoError(t, Validate(valid()))
	assert.ErrorIs(t, Validate(nil), errors.ErrConfigInvalid)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), errors.ErrConfigInvalid)
		})
	}
}
