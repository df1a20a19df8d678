package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/store"
	"github.com/tgienger/seotrack/internal/ui/render"
)

func newAttachCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <task> <file>",
		Short: "Attach a file to a task as proof of work",
		Long: `Attach a file to a task. Signed in, the file goes to the attachment store and
the task keeps its URL. As a guest, the file is embedded in the task as a data
URI.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runAttach(cmd.Context(), cmd.OutOrStdout(), app.Store, flags.Output, args[0], args[1])
			})
		},
	}
}

func runAttach(ctx context.Context, w io.Writer, st *store.Store, output, taskRef, path string) error {
	t, err := findTask(st, taskRef)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-named file
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	ref, err := st.UploadAttachment(ctx, t.ID, filepath.Base(path), data)
	if err != nil {
		return err
	}
	if output == OutputJSON {
		return writeJSON(w, map[string]string{"task": t.ID, "attachment": ref})
	}
	_, err = fmt.Fprintf(w, "Attached %s to %q: %s\n", filepath.Base(path), t.Title, displayRef(ref))
	return err
}

func newDetachCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <task> <attachment>",
		Short: "Remove an attachment from a task",
		Long: `Remove an attachment from a task. The attachment is named by its reference or
by its 1-based position in the task's attachment list.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runDetach(cmd.Context(), cmd.OutOrStdout(), app.Store, flags.Output, args[0], args[1])
			})
		},
	}
}

func runDetach(ctx context.Context, w io.Writer, st *store.Store, output, taskRef, which string) error {
	t, err := findTask(st, taskRef)
	if err != nil {
		return err
	}
	ref := which
	if n, convErr := strconv.Atoi(which); convErr == nil {
		if n < 1 || n > len(t.Attachments) {
			return fmt.Errorf("task has %d attachments, no #%d: %w", len(t.Attachments), n, errors.ErrNotFound)
		}
		ref = t.Attachments[n-1]
	}

	if err := st.DeleteAttachment(ctx, t.ID, ref); err != nil {
		return err
	}
	if output == OutputJSON {
		return writeJSON(w, map[string]string{"task": t.ID, "detached": ref})
	}
	_, err = fmt.Fprintf(w, "Detached %s from %q\n", displayRef(ref), t.Title)
	return err
}

func displayRef(ref string) string {
	return render.Ref(ref, 120)
}
