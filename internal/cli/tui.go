package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/seotrack/internal/identity"
	"github.com/tgienger/seotrack/internal/ui"
)

func newTUICmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive tracker (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), cmd, flags)
		},
	}
}

func runTUI(ctx context.Context, _ *cobra.Command, flags *GlobalFlags) error {
	app, err := openApp(ctx, flags, openOptions{tui: true})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// an explicit user pins the identity; otherwise follow the session file
	var changes <-chan string
	if app.Config.User == "" {
		w := identity.NewWatcher(app.Session, app.Log)
		if err := w.Start(ctx); err != nil {
			app.Log.Warn().Err(err).Msg("session watcher unavailable")
		} else {
			changes = w.Changes()
		}
	}

	model := ui.NewApp(ctx, app.Store, ui.Options{
		Identity: changes,
		Log:      app.Log,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
