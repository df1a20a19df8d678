// Package main provides the entry point for the seotrack CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tgienger/seotrack/internal/cli"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// cobra has already printed the error
	err := cli.Execute(ctx, cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	stop()
	if err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
