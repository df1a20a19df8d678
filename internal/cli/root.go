package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// newRootCmd creates the root command. Without a subcommand it starts the
// TUI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seotrack",
		Short: "seotrack - SEO task tracking per client domain",
		Long: `seotrack tracks SEO work per client project. Every new project is seeded
with the full task catalog; progress is scored by impact.

Without a signed-in user, data lives in a local guest file. After
"seotrack login <user>" the same commands work against that user's
database and attachment store.`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), cmd, flags)
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutputFormat(flags.Output)
		},
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, flags)

	cmd.AddCommand(
		newTUICmd(flags),
		newProjectCmd(flags),
		newTaskCmd(flags),
		newHistoryCmd(flags),
		newStatsCmd(flags),
		newAttachCmd(flags),
		newDetachCmd(flags),
		newTemplatesCmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newWhoamiCmd(flags),
	)
	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, info)
	return cmd.ExecuteContext(ctx)
}

// withApp opens the app for a command and closes it afterwards
func withApp(cmd *cobra.Command, flags *GlobalFlags, fn func(app *App) error) error {
	app, err := openApp(cmd.Context(), flags, openOptions{console: consoleFor(cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
