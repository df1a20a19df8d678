package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
	"github.com/tgienger/seotrack/internal/ui/render"
)

func newHistoryCmd(flags *GlobalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <project>",
		Short: "Show status changes of a project's tasks, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runHistory(cmd.OutOrStdout(), app.Store, flags.Output, args[0], limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many entries (0 for all)")
	return cmd
}

func runHistory(w io.Writer, st *store.Store, output, ref string, limit int) error {
	p, err := findProject(st, ref)
	if err != nil {
		return err
	}
	entries := st.HistoryOf(p.ID)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if output == OutputJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "No status changes in %s yet\n", p.Name)
		return err
	}
	cells := make([][]string, 0, len(entries))
	for _, h := range entries {
		cells = append(cells, []string{
			h.ChangedAt.Local().Format(time.DateTime),
			h.TaskTitle,
			string(h.OldStatus) + " → " + string(h.NewStatus),
			h.Actor,
			h.Notes,
		})
	}
	return writeTable(w, []string{"WHEN", "TASK", "CHANGE", "BY", "NOTE"}, cells)
}

// statsReport is the JSON shape of the stats command
type statsReport struct {
	Project    models.Project        `json:"project"`
	Score      int                   `json:"score"`
	Stats      store.Stats           `json:"stats"`
	Categories []store.CategoryScore `json:"categories"`
}

func newStatsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <project>",
		Short: "Show a project's score, status counts and per-category progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				return runStats(cmd.OutOrStdout(), app.Store, flags.Output, args[0])
			})
		},
	}
}

func runStats(w io.Writer, st *store.Store, output, ref string) error {
	p, err := findProject(st, ref)
	if err != nil {
		return err
	}
	r := statsReport{
		Project:    p,
		Score:      st.ScoreOf(p.ID),
		Stats:      st.StatsOf(p.ID),
		Categories: st.CategoryScoresOf(p.ID),
	}
	if output == OutputJSON {
		return writeJSON(w, r)
	}

	_, _ = fmt.Fprintf(w, "%s (%s)  score %d%%\n", p.Name, p.Domain, r.Score)
	_, _ = fmt.Fprintf(w, "%d tasks: %d done, %d in progress, %d not started, %d skipped, %s spent\n\n",
		r.Stats.Total, r.Stats.Done, r.Stats.InProgress, r.Stats.NotStarted, r.Stats.Skipped,
		render.Minutes(r.Stats.MinutesSpent))

	cells := make([][]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		cells = append(cells, []string{
			string(c.Category),
			strconv.Itoa(c.Score) + "%",
			fmt.Sprintf("%d/%d", c.Done, c.Tasks),
		})
	}
	return writeTable(w, []string{"CATEGORY", "SCORE", "DONE"}, cells)
}
