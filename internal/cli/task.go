package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
	"github.com/tgienger/seotrack/internal/ui/render"
)

func newTaskCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "List, show and update a project's tasks",
	}
	cmd.AddCommand(
		newTaskListCmd(flags),
		newTaskShowCmd(flags),
		newTaskSetCmd(flags),
	)
	return cmd
}

type taskListOptions struct {
	category string
	status   string
	query    string
}

func newTaskListCmd(flags *GlobalFlags) *cobra.Command {
	var opts taskListOptions
	cmd := &cobra.Command{
		Use:     "list <project>",
		Aliases: []string{"ls"},
		Short:   "List a project's tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runTaskList(cmd.OutOrStdout(), app.Store, flags.Output, args[0], opts)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "only this category")
	cmd.Flags().StringVarP(&opts.status, "status", "s", "", "only this status")
	cmd.Flags().StringVar(&opts.query, "query", "", "match title or description")
	return cmd
}

func runTaskList(w io.Writer, st *store.Store, output, ref string, opts taskListOptions) error {
	p, err := findProject(st, ref)
	if err != nil {
		return err
	}
	filter := store.TaskFilter{
		Category: models.Category(opts.category),
		Status:   models.Status(opts.status),
		Query:    opts.query,
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return fmt.Errorf("unknown category %q: %w", opts.category, errors.ErrInvalidInput)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", opts.status, errors.ErrInvalidInput)
	}

	tasks := st.TasksOf(p.ID, filter)
	if output == OutputJSON {
		return writeJSON(w, tasks)
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No matching tasks")
		return err
	}

	cells := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		cells = append(cells, []string{
			shortID(t.ID),
			string(t.Category),
			t.Title,
			string(t.Impact),
			string(t.Priority),
			string(t.Status),
			strconv.Itoa(t.MinutesSpent),
		})
	}
	return writeTable(w, []string{"ID", "CATEGORY", "TITLE", "IMPACT", "PRIORITY", "STATUS", "MIN"}, cells)
}

func newTaskShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Show a task with its steps, tools and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runTaskShow(cmd.OutOrStdout(), app.Store, flags.Output, args[0])
			})
		},
	}
}

func runTaskShow(w io.Writer, st *store.Store, output, ref string) error {
	t, err := findTask(st, ref)
	if err != nil {
		return err
	}
	if output == OutputJSON {
		return writeJSON(w, t)
	}
	width := 80
	if !terminalCheck() {
		width = 0
	}
	_, err = fmt.Fprint(w, render.Markdown(render.TaskMarkdown(t), width))
	return err
}

type taskSetOptions struct {
	status     string
	completed  string
	notes      string
	proof      string
	minutes    int
	addMinutes int
	note       string
}

func newTaskSetCmd(flags *GlobalFlags) *cobra.Command {
	var opts taskSetOptions
	cmd := &cobra.Command{
		Use:   "set <task>",
		Short: "Update a task's status, notes, proof URL or time spent",
		Long: `Update the given fields of a task; fields not named on the command line are
left as they are. Changing the status records a history entry, and moving a
task to done stamps the completion date unless --completed is given.`,
		Example: `  seotrack task set 3f2a9c1e --status done --note "submitted sitemap"
  seotrack task set 3f2a9c1e --add-minutes 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runTaskSet(cmd.Context(), cmd, app.Store, flags.Output, args[0], opts)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.status, "status", "s", "", "not-started|in-progress|done|skipped")
	cmd.Flags().StringVar(&opts.completed, "completed", "", "completion date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "replace the task notes")
	cmd.Flags().StringVar(&opts.proof, "proof", "", "proof URL")
	cmd.Flags().IntVar(&opts.minutes, "minutes", 0, "set the minutes spent")
	cmd.Flags().IntVar(&opts.addMinutes, "add-minutes", 0, "add to the minutes spent (negative subtracts)")
	cmd.Flags().StringVarP(&opts.note, "note", "m", "", "note recorded with the status change")
	cmd.MarkFlagsMutuallyExclusive("minutes", "add-minutes")
	return cmd
}

func runTaskSet(ctx context.Context, cmd *cobra.Command, st *store.Store, output, ref string, opts taskSetOptions) error {
	t, err := findTask(st, ref)
	if err != nil {
		return err
	}
	u, err := buildTaskUpdate(cmd, t, opts)
	if err != nil {
		return err
	}
	if u.Empty() {
		return fmt.Errorf("nothing to update, pass at least one field flag: %w", errors.ErrInvalidInput)
	}
	if err := st.UpdateTask(ctx, t.ID, u); err != nil {
		return err
	}

	updated, _ := st.Task(t.ID)
	w := cmd.OutOrStdout()
	if output == OutputJSON {
		return writeJSON(w, updated)
	}
	_, err = fmt.Fprintf(w, "Updated %s %q: %s, %d min\n",
		shortID(updated.ID), updated.Title, updated.Status, updated.MinutesSpent)
	return err
}

// buildTaskUpdate turns the flags that were actually set into a sparse update
func buildTaskUpdate(cmd *cobra.Command, t models.Task, opts taskSetOptions) (models.TaskUpdate, error) {
	var u models.TaskUpdate
	changed := cmd.Flags().Changed

	if changed("status") {
		s := models.Status(opts.status)
		u.Status = &s
		u.ChangeNote = opts.note
	}
	if changed("completed") {
		d, err := time.Parse(time.DateOnly, opts.completed)
		if err != nil {
			return u, fmt.Errorf("completion date %q must be YYYY-MM-DD: %w", opts.completed, errors.ErrInvalidInput)
		}
		u.CompletionDate = &d
	}
	if changed("notes") {
		u.Notes = &opts.notes
	}
	if changed("proof") {
		u.ProofURL = &opts.proof
	}
	if changed("minutes") {
		u.MinutesSpent = &opts.minutes
	}
	if changed("add-minutes") {
		m := max(t.MinutesSpent+opts.addMinutes, 0)
		u.MinutesSpent = &m
	}
	return u, nil
}
