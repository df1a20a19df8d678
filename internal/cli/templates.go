package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tgienger/seotrack/internal/catalog"
	"github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
)

func newTemplatesCmd(flags *GlobalFlags) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"catalog"},
		Short:   "List the task catalog new projects are seeded from",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTemplates(cmd.OutOrStdout(), flags.Output, category)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	return cmd
}

func runTemplates(w io.Writer, output, category string) error {
	templates := catalog.All()
	if category != "" {
		c := models.Category(category)
		if !c.Valid() {
			return fmt.Errorf("unknown category %q, want one of %v: %w", category, models.Categories(), errors.ErrInvalidInput)
		}
		templates = catalog.ByCategory(c)
	}

	if output == OutputJSON {
		return writeJSON(w, templates)
	}
	cells := make([][]string, 0, len(templates))
	for _, t := range templates {
		cells = append(cells, []string{string(t.Category), t.Title, string(t.Impact), string(t.Priority)})
	}
	return writeTable(w, []string{"CATEGORY", "TITLE", "IMPACT", "PRIORITY"}, cells)
}
