package models

import (
	"slices"
	"time"
)

// Category groups tasks in the catalog
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryOnPage    Category = "on-page"
	CategoryContent   Category = "content"
	CategoryOffPage   Category = "off-page"
	CategoryLocal     Category = "local"
	CategoryTracking  Category = "tracking"
)

// Categories lists every category in display order
func Categories() []Category {
	return []Category{
		CategoryTechnical,
		CategoryOnPage,
		CategoryContent,
		CategoryOffPage,
		CategoryLocal,
		CategoryTracking,
	}
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return slices.Contains(Categories(), c)
}

// Impact is the expected effect of completing a task
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Weight returns the score weight of the impact level
func (i Impact) Weight() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	}
	return 0
}

// Valid reports whether i is a known impact level
func (i Impact) Valid() bool {
	return i == ImpactHigh || i == ImpactMedium || i == ImpactLow
}

// Priority orders tasks inside a category
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status is the progress state of a task
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusSkipped    Status = "skipped"
)

// Statuses lists every status in workflow order
func Statuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusDone, StatusSkipped}
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return slices.Contains(Statuses(), s)
}

// Next returns the status that follows s when cycling in the UI
func (s Status) Next() Status {
	all := Statuses()
	i := slices.Index(all, s)
	return all[(i+1)%len(all)]
}

// Project represents a tracked SEO engagement for one domain
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Domain     string    `json:"domain"`
	StartDate  string    `json:"startDate"`
	ClientName string    `json:"clientName"`
	Industry   string    `json:"industry"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TaskTemplate is the catalog definition a task is seeded from
type TaskTemplate struct {
	Category       Category `yaml:"category"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Rationale      string   `yaml:"rationale"`
	ExecutionSteps []string `yaml:"steps"`
	Tools          []string `yaml:"tools"`
	Impact         Impact   `yaml:"impact"`
	Priority       Priority `yaml:"priority"`
}

// Task represents one SEO checklist item inside a project
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"projectId"`
	Category       Category   `json:"category"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Rationale      string     `json:"rationale"`
	ExecutionSteps []string   `json:"executionSteps"`
	Tools          []string   `json:"tools"`
	Impact         Impact     `json:"impact"`
	Priority       Priority   `json:"priority"`
	Status         Status     `json:"status"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	Notes          string     `json:"notes"`
	ProofURL       string     `json:"proofUrl"`
	MinutesSpent   int        `json:"minutesSpent"`
	Attachments    []string   `json:"attachments"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// HistoryEntry records one status transition of a task.
// Title and category are copied at the time of the change.
type HistoryEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	Category  Category  `json:"category"`
	OldStatus Status    `json:"oldStatus"`
	NewStatus Status    `json:"newStatus"`
	Actor     string    `json:"actor"`
	ChangedAt time.Time `json:"changedAt"`
	Notes     string    `json:"notes,omitempty"`
}

// NewTaskFromTemplate builds a task for projectID with every mutable field at
// its default. The caller assigns the ID.
func NewTaskFromTemplate(projectID string, tmpl TaskTemplate, createdAt time.Time) Task {
	return Task{
		ProjectID:      projectID,
		Category:       tmpl.Category,
		Title:          tmpl.Title,
		Description:    tmpl.Description,
		Rationale:      tmpl.Rationale,
		ExecutionSteps: slices.Clone(nonNil(tmpl.ExecutionSteps)),
		Tools:          slices.Clone(nonNil(tmpl.Tools)),
		Impact:         tmpl.Impact,
		Priority:       tmpl.Priority,
		Status:         StatusNotStarted,
		Attachments:    []string{},
		CreatedAt:      createdAt,
	}
}

// Clone returns a deep copy of the template
func (t TaskTemplate) Clone() TaskTemplate {
	t.ExecutionSteps = slices.Clone(t.ExecutionSteps)
	t.Tools = slices.Clone(t.Tools)
	return t
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	t.ExecutionSteps = slices.Clone(t.ExecutionSteps)
	t.Tools = slices.Clone(t.Tools)
	t.Attachments = slices.Clone(t.Attachments)
	if t.CompletionDate != nil {
		d := *t.CompletionDate
		t.CompletionDate = &d
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
