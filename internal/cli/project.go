package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
)

// formRunner is an interface that matches huh.Form's Run method.
type formRunner interface {
	Run() error
}

// createProjectForm builds the prompt for missing project fields.
// Overridden in tests.
//
//nolint:gochecknoglobals // Test injection point
var createProjectForm = defaultCreateProjectForm

// createDeleteConfirmForm builds the project delete confirmation.
// Overridden in tests.
//
//nolint:gochecknoglobals // Test injection point
var createDeleteConfirmForm = defaultCreateDeleteConfirmForm

// terminalCheck reports whether stdin is interactive. Overridden in tests.
//
//nolint:gochecknoglobals // Test injection point
var terminalCheck = isTerminal

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newProjectCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Create, list and delete projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(flags),
		newProjectListCmd(flags),
		newProjectDeleteCmd(flags),
	)
	return cmd
}

func newProjectCreateCmd(flags *GlobalFlags) *cobra.Command {
	var fields models.ProjectFields
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project seeded with every catalog task",
		Long: `Create a project for a client domain. The project starts with one task per
catalog entry, all not started.

Missing name or domain are prompted for when stdin is a terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				fields.Name = args[0]
			}
			return withApp(cmd, flags, func(app *App) error {
				return runProjectCreate(cmd.Context(), cmd.OutOrStdout(), app.Store, flags.Output, fields)
			})
		},
	}
	cmd.Flags().StringVar(&fields.Name, "name", "", "project name")
	cmd.Flags().StringVarP(&fields.Domain, "domain", "d", "", "client domain, e.g. example.com")
	cmd.Flags().StringVar(&fields.StartDate, "start", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&fields.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&fields.Industry, "industry", "", "client industry")
	return cmd
}

func runProjectCreate(ctx context.Context, w io.Writer, st *store.Store, output string, fields models.ProjectFields) error {
	if (fields.Name == "" || fields.Domain == "") && output == OutputText && terminalCheck() {
		if err := createProjectForm(&fields).Run(); err != nil {
			if stderrors.Is(err, huh.ErrUserAborted) {
				return errors.ErrUserAborted
			}
			return err
		}
	}

	id, err := st.CreateProject(ctx, fields)
	if err != nil {
		return err
	}
	p, _ := st.Project(id)

	if output == OutputJSON {
		return writeJSON(w, projectRow{
			Project: p,
			Score:   st.ScoreOf(id),
			Stats:   st.StatsOf(id),
		})
	}
	_, err = fmt.Fprintf(w, "Created project %s (%s) for %s with %d tasks\n",
		p.Name, shortID(p.ID), p.Domain, st.StatsOf(id).Total)
	return err
}

func defaultCreateProjectForm(fields *models.ProjectFields) formRunner {
	required := func(what string) func(string) error {
		return func(s string) error {
			if s == "" {
				return fmt.Errorf("%s is required", what)
			}
			return nil
		}
	}
	validDate := func(s string) error {
		if s == "" {
			return nil
		}
		_, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return fmt.Errorf("use YYYY-MM-DD")
		}
		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project name").Value(&fields.Name).Validate(required("name")),
			huh.NewInput().Title("Domain").Placeholder("example.com").Value(&fields.Domain).Validate(required("domain")),
			huh.NewInput().Title("Start date").Placeholder("today").Value(&fields.StartDate).Validate(validDate),
			huh.NewInput().Title("Client").Value(&fields.ClientName),
			huh.NewInput().Title("Industry").Value(&fields.Industry),
		),
	)
}

// projectRow is the JSON shape of a listed project
type projectRow struct {
	models.Project
	Score int         `json:"score"`
	Stats store.Stats `json:"stats"`
}

func newProjectListCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects with their score",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runProjectList(cmd.OutOrStdout(), app.Store, flags.Output)
			})
		},
	}
}

func runProjectList(w io.Writer, st *store.Store, output string) error {
	projects := st.Projects()
	rows := make([]projectRow, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, projectRow{Project: p, Score: st.ScoreOf(p.ID), Stats: st.StatsOf(p.ID)})
	}

	if output == OutputJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "No projects (%s). Create one with: seotrack project create\n", st.State())
		return err
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			shortID(r.ID),
			r.Name,
			r.Domain,
			r.ClientName,
			r.StartDate,
			strconv.Itoa(r.Score) + "%",
			fmt.Sprintf("%d/%d", r.Stats.Done, r.Stats.Total),
		})
	}
	return writeTable(w, []string{"ID", "NAME", "DOMAIN", "CLIENT", "START", "SCORE", "DONE"}, cells)
}

func newProjectDeleteCmd(flags *GlobalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <project>",
		Aliases: []string{"rm"},
		Short:   "Delete a project with its tasks and history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runProjectDelete(cmd.Context(), cmd.OutOrStdout(), app.Store, flags.Output, args[0], yes)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runProjectDelete(ctx context.Context, w io.Writer, st *store.Store, output, ref string, yes bool) error {
	p, err := findProject(st, ref)
	if err != nil {
		return err
	}

	if !yes && output == OutputText && terminalCheck() {
		confirm := false
		if err := createDeleteConfirmForm(p, &confirm).Run(); err != nil {
			if stderrors.Is(err, huh.ErrUserAborted) {
				return errors.ErrUserAborted
			}
			return err
		}
		if !confirm {
			_, err := fmt.Fprintln(w, "Cancelled")
			return err
		}
	}

	if err := st.DeleteProject(ctx, p.ID); err != nil {
		return err
	}
	if output == OutputJSON {
		return writeJSON(w, map[string]string{"status": "deleted", "id": p.ID})
	}
	_, err = fmt.Fprintf(w, "Deleted project %s (%s)\n", p.Name, shortID(p.ID))
	return err
}

func defaultCreateDeleteConfirmForm(p models.Project, confirm *bool) formRunner {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project '%s' (%s)?", p.Name, p.Domain)).
				Description("All tasks and their history are removed. This cannot be undone.").
				Affirmative("Yes, delete").
				Negative("No, cancel").
				Value(confirm),
		),
	)
}
