// Package render turns tasks into text for the TUI and the CLI.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/tgienger/seotrack/internal/models"
)

// TaskMarkdown describes a task as a markdown document
func TaskMarkdown(t models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "**%s** · impact **%s** · priority **%s** · %s\n\n",
		Label(t.Status), t.Impact, t.Priority, t.Category)
	if t.CompletionDate != nil {
		fmt.Fprintf(&b, "Completed %s\n\n", t.CompletionDate.Local().Format(time.DateOnly))
	}
	if t.MinutesSpent > 0 {
		fmt.Fprintf(&b, "Time spent: %s\n\n", Minutes(t.MinutesSpent))
	}

	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Description)
	}
	if t.Rationale != "" {
		fmt.Fprintf(&b, "## Why it matters\n\n%s\n\n", t.Rationale)
	}
	if len(t.ExecutionSteps) > 0 {
		b.WriteString("## Steps\n\n")
		for i, step := range t.ExecutionSteps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		b.WriteString("\n")
	}
	if len(t.Tools) > 0 {
		fmt.Fprintf(&b, "## Tools\n\n%s\n\n", strings.Join(t.Tools, ", "))
	}
	if t.Notes != "" {
		fmt.Fprintf(&b, "## Notes\n\n%s\n\n", t.Notes)
	}
	if t.ProofURL != "" {
		fmt.Fprintf(&b, "## Proof\n\n<%s>\n\n", t.ProofURL)
	}
	if len(t.Attachments) > 0 {
		b.WriteString("## Attachments\n\n")
		for i, ref := range t.Attachments {
			fmt.Fprintf(&b, "%d. `%s`\n", i+1, Ref(ref, 72))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders md for a terminal of the given width. A width of zero or
// less returns md unchanged, for pipes and files.
func Markdown(md string, width int) string {
	if width <= 0 {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Truncate cuts s to at most width terminal cells, marking the cut with "…"
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Ref shortens an attachment reference for display. Data URIs keep only
// their media type.
func Ref(ref string, width int) string {
	if strings.HasPrefix(ref, "data:") {
		if i := strings.Index(ref, ","); i > 0 {
			ref = ref[:i] + ",…"
		}
	}
	return Truncate(ref, width)
}

// Label is the human form of a status
func Label(s models.Status) string {
	switch s {
	case models.StatusNotStarted:
		return "Not started"
	case models.StatusInProgress:
		return "In progress"
	case models.StatusDone:
		return "Done"
	case models.StatusSkipped:
		return "Skipped"
	}
	return string(s)
}

// Minutes formats a duration in minutes as 45m or 2h05m
func Minutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
