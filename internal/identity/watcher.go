package identity

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tgienger/seotrack/internal/fsutil"
)

// Watcher reports sign-in and sign-out performed through the session file
type Watcher struct {
	file    *File
	log     zerolog.Logger
	changes chan string
}

// NewWatcher returns a watcher for f
func NewWatcher(f *File, log zerolog.Logger) *Watcher {
	return &Watcher{
		file:    f,
		log:     log.With().Str("component", "identity").Logger(),
		changes: make(chan string, 16),
	}
}

// Changes delivers the user ID ("" for signed out) each time it changes.
// The channel is closed when the watcher stops.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start watches the session file's directory until ctx is done. The
// directory is watched rather than the file so that a session created
// after startup is still seen.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.file.Path())
	if err := os.MkdirAll(dir, fsutil.DirPerm); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return err
	}

	last, _ := w.file.Read()
	name := filepath.Base(w.file.Path())

	go func() {
		defer fsw.Close()
		defer close(w.changes)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				userID, err := w.file.Read()
				if err != nil {
					w.log.Warn().Err(err).Msg("session file unreadable, treating as signed out")
				}
				if userID == last {
					continue
				}
				last = userID
				w.log.Info().Str("user", userID).Msg("identity changed")
				select {
				case w.changes <- userID:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.log.Error().Err(err).Msg("session watcher error")
			}
		}
	}()
	return nil
}
