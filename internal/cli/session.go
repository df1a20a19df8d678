package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tgienger/seotrack/internal/identity"
)

// sessionStatus is the JSON shape of login, logout and whoami
type sessionStatus struct {
	SignedIn bool   `json:"signedIn"`
	UserID   string `json:"userId,omitempty"`
	Source   string `json:"source,omitempty"`
}

// withSession resolves config and hands fn the session file and the
// configured user override
func withSession(cmd *cobra.Command, flags *GlobalFlags, fn func(f *identity.File, override string) error) error {
	cfg, log, closer, err := loadConfig(cmd.Context(), flags, openOptions{console: consoleFor(cmd.ErrOrStderr())})
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	log.Debug().Str("session", cfg.SessionPath()).Msg("session file")
	return fn(identity.NewFile(cfg.SessionPath()), cfg.User)
}

func newLoginCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login <user>",
		Short: "Sign in; later commands use this user's database and attachments",
		Long: `Sign in as <user>. The user id is kept in the session file, so every later
command, and any running TUI, switches to that user's data. Guest data is left
untouched and comes back after logout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, func(f *identity.File, _ string) error {
				return runLogin(cmd.OutOrStdout(), f, flags.Output, args[0])
			})
		},
	}
}

func runLogin(w io.Writer, f *identity.File, output, userID string) error {
	if err := f.Write(userID); err != nil {
		return err
	}
	userID, err := f.Read()
	if err != nil {
		return err
	}
	if output == OutputJSON {
		return writeJSON(w, sessionStatus{SignedIn: true, UserID: userID, Source: "session"})
	}
	_, err = fmt.Fprintf(w, "Signed in as %s\n", userID)
	return err
}

func newLogoutCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and return to guest data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, flags, func(f *identity.File, _ string) error {
				return runLogout(cmd.OutOrStdout(), f, flags.Output)
			})
		},
	}
}

func runLogout(w io.Writer, f *identity.File, output string) error {
	if err := f.Clear(); err != nil {
		return err
	}
	if output == OutputJSON {
		return writeJSON(w, sessionStatus{})
	}
	_, err := fmt.Fprintln(w, "Signed out, using guest data")
	return err
}

func newWhoamiCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, flags, func(f *identity.File, override string) error {
				return runWhoami(cmd.OutOrStdout(), f, flags.Output, override)
			})
		},
	}
}

func runWhoami(w io.Writer, f *identity.File, output, override string) error {
	userID, err := identity.Resolve(override, f)
	if err != nil {
		return err
	}
	st := sessionStatus{SignedIn: userID != "", UserID: userID}
	switch {
	case override != "":
		st.Source = "override"
	case userID != "":
		st.Source = "session"
	}

	if output == OutputJSON {
		return writeJSON(w, st)
	}
	if !st.SignedIn {
		_, err = fmt.Fprintln(w, "guest")
		return err
	}
	_, err = fmt.Fprintln(w, userID)
	return err
}
