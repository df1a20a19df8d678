package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tgienger/seotrack/internal/config"
	"github.com/tgienger/seotrack/internal/db"
	"github.com/tgienger/seotrack/internal/identity"
	"github.com/tgienger/seotrack/internal/local"
	"github.com/tgienger/seotrack/internal/logging"
	"github.com/tgienger/seotrack/internal/metrics"
	"github.com/tgienger/seotrack/internal/objstore"
	"github.com/tgienger/seotrack/internal/store"
)

// App is everything a command needs, opened from the resolved config
type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	Store   *store.Store
	Session *identity.File
	Metrics *metrics.Provider

	db      *db.DB
	logFile io.Closer
}

type openOptions struct {
	// tui keeps the logger off the console
	tui bool
	// console receives console logs; nil means stderr
	console io.Writer
}

// loadConfig resolves configuration and builds the logger, without opening
// any store
func loadConfig(ctx context.Context, flags *GlobalFlags, opts openOptions) (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load(ctx, config.LoadOptions{
		ConfigFile: flags.ConfigFile,
		User:       flags.User,
	})
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	log, closer, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Verbose:    flags.Verbose,
		Quiet:      flags.Quiet,
		File:       cfg.LogPath(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		NoConsole:  opts.tui,
		Console:    opts.console,
	})
	if err != nil {
		log.Warn().Err(err).Msg("log file unavailable, logging to console only")
	}
	return cfg, log, closer, nil
}

// openApp wires the store to its adapters and binds it to the resolved
// identity
func openApp(ctx context.Context, flags *GlobalFlags, opts openOptions) (*App, error) {
	cfg, log, closer, err := loadConfig(ctx, flags, opts)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:  cfg,
		Log:     log,
		Session: identity.NewFile(cfg.SessionPath()),
		Metrics: metrics.Init(cfg.Metrics.Enabled),
		logFile: closer,
	}

	guest, err := local.New(cfg.DataDir, cfg.Guest.Key, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	var remote store.Remote
	app.db, err = db.New(ctx, cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		// guest mode still works without the database
		log.Error().Err(err).Str("path", cfg.Database.Path).Msg("database unavailable")
	} else {
		remote = store.FromDB(app.db)
	}

	var objects store.Objects
	bucket, err := objstore.New(cfg.Attachments.Dir, cfg.Attachments.BaseURL, objstore.WithMaxBytes(cfg.Attachments.MaxBytes))
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Attachments.Dir).Msg("attachment store unavailable")
	} else {
		objects = store.FromBucket(bucket)
	}

	m, err := metrics.NewMetrics(app.Metrics.Meter)
	if err != nil {
		log.Warn().Err(err).Msg("metric instruments unavailable")
		m = metrics.Noop()
	}

	app.Store = store.New(guest, remote, objects,
		store.WithLogger(log),
		store.WithMetrics(m),
		store.WithMaxAttachmentBytes(cfg.Attachments.MaxBytes),
	)
	app.Store.Init(ctx)

	userID, err := identity.Resolve(cfg.User, app.Session)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store.SetIdentity(ctx, userID)
	return app, nil
}

// Close flushes metrics and releases the database and log file
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if a.Metrics != nil {
		a.Metrics.LogSummary(ctx, a.Log)
		if err := a.Metrics.Shutdown(ctx); err != nil {
			a.Log.Debug().Err(err).Msg("metrics shutdown")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("database close")
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// consoleFor returns w unless it is the process stderr, which the logger
// selects on its own
func consoleFor(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		return nil
	}
	return w
}
