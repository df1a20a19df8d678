package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/seotrack/internal/models"
)

// timeLayout is fixed width and always UTC, so ORDER BY on the text column
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw, column string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", column, err)
	}
	return out, nil
}

// Column lists and scan destinations are kept next to each other; the row
// mapping test checks they line up and cover every model field.

const projectColumns = "id, owner, name, domain, start_date, client_name, industry, created_at"

type projectRow struct {
	ID         string
	Owner      string
	Name       string
	Domain     string
	StartDate  string
	ClientName string
	Industry   string
	CreatedAt  string
}

func (r *projectRow) scanDest() []any {
	return []any{&r.ID, &r.Owner, &r.Name, &r.Domain, &r.StartDate, &r.ClientName, &r.Industry, &r.CreatedAt}
}

func (r projectRow) values() []any {
	return []any{r.ID, r.Owner, r.Name, r.Domain, r.StartDate, r.ClientName, r.Industry, r.CreatedAt}
}

func projectRowFrom(owner string, p models.Project) projectRow {
	return projectRow{
		ID:         p.ID,
		Owner:      owner,
		Name:       p.Name,
		Domain:     p.Domain,
		StartDate:  p.StartDate,
		ClientName: p.ClientName,
		Industry:   p.Industry,
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

func (r projectRow) toModel() (models.Project, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return models.Project{}, fmt.Errorf("project %s created_at: %w", r.ID, err)
	}
	return models.Project{
		ID:         r.ID,
		Name:       r.Name,
		Domain:     r.Domain,
		StartDate:  r.StartDate,
		ClientName: r.ClientName,
		Industry:   r.Industry,
		CreatedAt:  created,
	}, nil
}

const taskColumns = "id, owner, project_id, position, category, title, description, rationale, " +
	"execution_steps, tools, expected_impact, priority, status, completion_date, notes, proof_url, " +
	"minutes_spent, attachments, created_at"

type taskRow struct {
	ID             string
	Owner          string
	ProjectID      string
	Position       int
	Category       string
	Title          string
	Description    string
	Rationale      string
	ExecutionSteps string
	Tools          string
	Impact         string
	Priority       string
	Status         string
	CompletionDate sql.NullString
	Notes          string
	ProofURL       string
	MinutesSpent   int
	Attachments    string
	CreatedAt      string
}

func (r *taskRow) scanDest() []any {
	return []any{
		&r.ID, &r.Owner, &r.ProjectID, &r.Position, &r.Category, &r.Title, &r.Description, &r.Rationale,
		&r.ExecutionSteps, &r.Tools, &r.Impact, &r.Priority, &r.Status, &r.CompletionDate, &r.Notes, &r.ProofURL,
		&r.MinutesSpent, &r.Attachments, &r.CreatedAt,
	}
}

func (r taskRow) values() []any {
	return []any{
		r.ID, r.Owner, r.ProjectID, r.Position, r.Category, r.Title, r.Description, r.Rationale,
		r.ExecutionSteps, r.Tools, r.Impact, r.Priority, r.Status, r.CompletionDate, r.Notes, r.ProofURL,
		r.MinutesSpent, r.Attachments, r.CreatedAt,
	}
}

func taskRowFrom(owner string, position int, t models.Task) (taskRow, error) {
	steps, err := encodeList(t.ExecutionSteps)
	if err != nil {
		return taskRow{}, err
	}
	tools, err := encodeList(t.Tools)
	if err != nil {
		return taskRow{}, err
	}
	attachments, err := encodeList(t.Attachments)
	if err != nil {
		return taskRow{}, err
	}
	var completion sql.NullString
	if t.CompletionDate != nil {
		completion = sql.NullString{String: formatTime(*t.CompletionDate), Valid: true}
	}
	return taskRow{
		ID:             t.ID,
		Owner:          owner,
		ProjectID:      t.ProjectID,
		Position:       position,
		Category:       string(t.Category),
		Title:          t.Title,
		Description:    t.Description,
		Rationale:      t.Rationale,
		ExecutionSteps: steps,
		Tools:          tools,
		Impact:         string(t.Impact),
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		CompletionDate: completion,
		Notes:          t.Notes,
		ProofURL:       t.ProofURL,
		MinutesSpent:   t.MinutesSpent,
		Attachments:    attachments,
		CreatedAt:      formatTime(t.CreatedAt),
	}, nil
}

func (r taskRow) toModel() (models.Task, error) {
	steps, err := decodeList(r.ExecutionSteps, "execution_steps")
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	tools, err := decodeList(r.Tools, "tools")
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	attachments, err := decodeList(r.Attachments, "attachments")
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s created_at: %w", r.ID, err)
	}
	var completion *time.Time
	if r.CompletionDate.Valid {
		d, err := parseTime(r.CompletionDate.String)
		if err != nil {
			return models.Task{}, fmt.Errorf("task %s completion_date: %w", r.ID, err)
		}
		completion = &d
	}
	return models.Task{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		Category:       models.Category(r.Category),
		Title:          r.Title,
		Description:    r.Description,
		Rationale:      r.Rationale,
		ExecutionSteps: steps,
		Tools:          tools,
		Impact:         models.Impact(r.Impact),
		Priority:       models.Priority(r.Priority),
		Status:         models.Status(r.Status),
		CompletionDate: completion,
		Notes:          r.Notes,
		ProofURL:       r.ProofURL,
		MinutesSpent:   r.MinutesSpent,
		Attachments:    attachments,
		CreatedAt:      created,
	}, nil
}

const historyColumns = "id, owner, task_id, task_title, category, old_status, new_status, actor, changed_at, notes"

type historyRow struct {
	ID        string
	Owner     string
	TaskID    string
	TaskTitle string
	Category  string
	OldStatus string
	NewStatus string
	Actor     string
	ChangedAt string
	Notes     string
}

func (r *historyRow) scanDest() []any {
	return []any{&r.ID, &r.Owner, &r.TaskID, &r.TaskTitle, &r.Category, &r.OldStatus, &r.NewStatus, &r.Actor, &r.ChangedAt, &r.Notes}
}

func (r historyRow) values() []any {
	return []any{r.ID, r.Owner, r.TaskID, r.TaskTitle, r.Category, r.OldStatus, r.NewStatus, r.Actor, r.ChangedAt, r.Notes}
}

func historyRowFrom(owner string, h models.HistoryEntry) historyRow {
	return historyRow{
		ID:        h.ID,
		Owner:     owner,
		TaskID:    h.TaskID,
		TaskTitle: h.TaskTitle,
		Category:  string(h.Category),
		OldStatus: string(h.OldStatus),
		NewStatus: string(h.NewStatus),
		Actor:     h.Actor,
		ChangedAt: formatTime(h.ChangedAt),
		Notes:     h.Notes,
	}
}

func (r historyRow) toModel() (models.HistoryEntry, error) {
	changed, err := parseTime(r.ChangedAt)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("history %s changed_at: %w", r.ID, err)
	}
	return models.HistoryEntry{
		ID:        r.ID,
		TaskID:    r.TaskID,
		TaskTitle: r.TaskTitle,
		Category:  models.Category(r.Category),
		OldStatus: models.Status(r.OldStatus),
		NewStatus: models.Status(r.NewStatus),
		Actor:     r.Actor,
		ChangedAt: changed,
		Notes:     r.Notes,
	}, nil
}

// placeholders returns "?, ?, ..." for the columns of a column list
func placeholders(columns string) string {
	n := strings.Count(columns, ",") + 1
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
