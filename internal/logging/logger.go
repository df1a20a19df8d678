package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is the configured level name; Verbose and Quiet override it.
	Level   string
	Verbose bool
	Quiet   bool

	// File is the rotating log file. Empty disables file logging.
	File       string
	MaxSizeMB  int
	MaxBackups int

	// NoConsole keeps the logger off stderr; the TUI owns the terminal.
	NoConsole bool

	// Console replaces stderr, for tests.
	Console io.Writer
}

// New builds a logger writing to the console and, when configured, to a
// rotating file. The returned closer releases the file.
//
// If the log file cannot be opened, logging continues without it and the
// error is returned alongside a usable logger.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := selectLevel(opts)
	var writers []io.Writer
	if !opts.NoConsole {
		writers = append(writers, selectOutput(opts.Console))
	}

	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.File != "" {
		fw, err := createLogFileWriter(opts)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, fw)
			closer = fw
		}
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(out).Level(level).Hook(NewSensitiveDataHook()).With().Timestamp().Logger()
	return logger, closer, fileErr
}

func selectLevel(opts Options) zerolog.Level {
	switch {
	case opts.Verbose:
		return zerolog.DebugLevel
	case opts.Quiet:
		return zerolog.WarnLevel
	}
	if lvl, err := zerolog.ParseLevel(opts.Level); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}

// selectOutput picks a console writer on a color TTY, JSON otherwise
func selectOutput(override io.Writer) io.Writer {
	if override != nil {
		return override
	}
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

type filteringWriteCloser struct {
	filter *FilteringWriter
	closer io.Closer
}

func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

func createLogFileWriter(opts Options) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     28,
		Compress:   true,
	}
	return &filteringWriteCloser{
		filter: NewFilteringWriter(lj),
		closer: lj,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
