package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
)

// shortIDLen is how much of an ID text output shows and prefix lookups need
const shortIDLen = 8

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeTable renders rows under headers with a plain border
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Faint(true)).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// findProject resolves ref as a full ID, a unique ID prefix, or a project
// name or domain
func findProject(st *store.Store, ref string) (models.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Project{}, fmt.Errorf("project %w", errors.ErrEmptyValue)
	}
	if p, ok := st.Project(ref); ok {
		return p, nil
	}

	var matches []models.Project
	for _, p := range st.Projects() {
		if strings.HasPrefix(p.ID, ref) ||
			strings.EqualFold(p.Name, ref) ||
			p.Domain == models.NormalizeDomain(ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return models.Project{}, fmt.Errorf("project %q: %w", ref, errors.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return models.Project{}, fmt.Errorf("project %q matches %d projects, use a longer id: %w", ref, len(matches), errors.ErrInvalidInput)
}

// findTask resolves ref as a full task ID or a unique ID prefix
func findTask(st *store.Store, ref string) (models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, fmt.Errorf("task %w", errors.ErrEmptyValue)
	}
	if t, ok := st.Task(ref); ok {
		return t, nil
	}

	var matches []models.Task
	for _, t := range st.Snapshot().Tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("task %q: %w", ref, errors.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return models.Task{}, fmt.Errorf("task %q matches %d tasks, use a longer id: %w", ref, len(matches), errors.ErrInvalidInput)
}
