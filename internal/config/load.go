package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/tgienger/seotrack/internal/errors"
)

// LoadOptions carries the CLI flag values that override every other source.
// Empty fields are ignored.
type LoadOptions struct {
	// ConfigFile replaces the default config file location. Unlike the
	// default location, it must exist.
	ConfigFile string
	User       string
	DataDir    string
}

func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SEOTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("user", "")

	v.SetDefault("database.path", "")
	v.SetDefault("database.busy_timeout", "5s")

	v.SetDefault("attachments.dir", "")
	v.SetDefault("attachments.base_url", "")
	v.SetDefault("attachments.max_bytes", 10<<20)

	v.SetDefault("guest.key", "seotrack-guest")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault("metrics.enabled", false)
}

func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// Load reads configuration from all sources, applies opts and fills in
// derived paths. A missing default config file is not an error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	v := newViperInstance()

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if opts.User != "" {
		cfg.User = opts.User
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("data_dir", cfg.DataDir).
		Str("database.path", cfg.Database.Path).
		Str("config_file", v.ConfigFileUsed()).
		Msg("configuration loaded")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, explicit string) error {
	path := explicit
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			// no home directory: defaults and env only
			return nil
		}
		if _, err := os.Stat(p); err != nil {
			return nil
		}
		path = p
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

// resolvePaths derives unset paths from the data dir
func (c *Config) resolvePaths() error {
	if c.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.DataDir, AppName+".db")
	}
	if c.Attachments.Dir == "" {
		c.Attachments.Dir = filepath.Join(c.DataDir, "attachments")
	}
	return nil
}

func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
