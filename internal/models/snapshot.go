package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
)

// Snapshot is the full data set visible in one mode. The JSON form is also
// the layout of the guest blob on disk.
type Snapshot struct {
	Projects []Project      `json:"projects"`
	Tasks    []Task         `json:"tasks"`
	History  []HistoryEntry `json:"history"`
}

// EmptySnapshot returns a snapshot with non-nil empty slices
func EmptySnapshot() Snapshot {
	return Snapshot{
		Projects: []Project{},
		Tasks:    []Task{},
		History:  []HistoryEntry{},
	}
}

// Normalize replaces nil slices with empty ones
func (s Snapshot) Normalize() Snapshot {
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	for i := range s.Tasks {
		s.Tasks[i].ExecutionSteps = nonNil(s.Tasks[i].ExecutionSteps)
		s.Tasks[i].Tools = nonNil(s.Tasks[i].Tools)
		s.Tasks[i].Attachments = nonNil(s.Tasks[i].Attachments)
	}
	return s
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Projects: append([]Project{}, s.Projects...),
		Tasks:    make([]Task, len(s.Tasks)),
		History:  append([]HistoryEntry{}, s.History...),
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	return out
}

// TaskIndex returns the position of the task with the given ID, or -1
func (s Snapshot) TaskIndex(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// ProjectFields holds the user-supplied part of a new project
type ProjectFields struct {
	Name       string `json:"name"`
	Domain     string `json:"domain"`
	StartDate  string `json:"startDate"`
	ClientName string `json:"clientName"`
	Industry   string `json:"industry"`
}

// Normalize trims every field, strips scheme and path from the domain and
// defaults an empty start date to today.
func (f ProjectFields) Normalize(now time.Time) ProjectFields {
	f.Name = strings.TrimSpace(f.Name)
	f.ClientName = strings.TrimSpace(f.ClientName)
	f.Industry = strings.TrimSpace(f.Industry)
	f.StartDate = strings.TrimSpace(f.StartDate)
	if f.StartDate == "" {
		f.StartDate = now.Format(time.DateOnly)
	}
	f.Domain = NormalizeDomain(f.Domain)
	return f
}

// Validate checks required fields. Call after Normalize.
func (f ProjectFields) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("project name is required: %w", seoerrors.ErrInvalidInput)
	}
	if f.Domain == "" {
		return fmt.Errorf("project domain is required: %w", seoerrors.ErrInvalidInput)
	}
	if _, err := time.Parse(time.DateOnly, f.StartDate); err != nil {
		return fmt.Errorf("start date %q must be YYYY-MM-DD: %w", f.StartDate, seoerrors.ErrInvalidInput)
	}
	return nil
}

// NormalizeDomain lower-cases a domain and drops any scheme, path and
// trailing slash: "https://Example.com/blog/" becomes "example.com".
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	if d == "" {
		return ""
	}
	if !strings.Contains(d, "://") {
		d = "http://" + d
	}
	u, err := url.Parse(d)
	if err != nil || u.Host == "" {
		return strings.Trim(strings.TrimSpace(strings.ToLower(raw)), "/")
	}
	return u.Host
}

// TaskUpdate is a sparse task mutation; nil fields are left untouched
type TaskUpdate struct {
	Title          *string
	Description    *string
	Rationale      *string
	Status         *Status
	CompletionDate *time.Time
	Notes          *string
	ProofURL       *string
	MinutesSpent   *int
	Attachments    []string

	// SetAttachments marks Attachments as present, including an empty list
	SetAttachments bool

	// ChangeNote is recorded on the history entry when the status changes
	ChangeNote string
}

// Validate rejects out-of-range values
func (u TaskUpdate) Validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", *u.Status, seoerrors.ErrInvalidInput)
	}
	if u.MinutesSpent != nil && *u.MinutesSpent < 0 {
		return fmt.Errorf("minutes spent must not be negative, got %d: %w", *u.MinutesSpent, seoerrors.ErrInvalidInput)
	}
	return nil
}

// Empty reports whether the update carries no field at all
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Rationale == nil &&
		u.Status == nil && u.CompletionDate == nil && u.Notes == nil &&
		u.ProofURL == nil && u.MinutesSpent == nil && !u.SetAttachments
}

// Apply returns t with every present field of u merged in
func (u TaskUpdate) Apply(t Task) Task {
	t = t.Clone()
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Rationale != nil {
		t.Rationale = *u.Rationale
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.CompletionDate != nil {
		d := *u.CompletionDate
		t.CompletionDate = &d
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.ProofURL != nil {
		t.ProofURL = *u.ProofURL
	}
	if u.MinutesSpent != nil {
		t.MinutesSpent = *u.MinutesSpent
	}
	if u.SetAttachments {
		t.Attachments = append([]string{}, u.Attachments...)
	}
	return t
}

// WithAttachments returns an update that replaces the attachment list
func WithAttachments(refs []string) TaskUpdate {
	return TaskUpdate{Attachments: append([]string{}, refs...), SetAttachments: true}
}
