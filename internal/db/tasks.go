package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
)

// InsertTasksForProject clones templates into not-started tasks of the
// project in one transaction
func (s *Scope) InsertTasksForProject(ctx context.Context, projectID string, templates []models.TaskTemplate) (err error) {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE id = ? AND owner = ?", projectID, s.owner).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("project %q: %w", projectID, seoerrors.ErrNotFound)
	}
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (`+placeholders(taskColumns)+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	created := s.now()
	for i, tmpl := range templates {
		task := models.NewTaskFromTemplate(projectID, tmpl, created)
		task.ID = uuid.NewString()

		row, rowErr := taskRowFrom(s.owner, i, task)
		if rowErr != nil {
			return rowErr
		}
		if _, err = stmt.ExecContext(ctx, row.values()...); err != nil {
			return fmt.Errorf("insert task %d (%s): %w", i, tmpl.Title, err)
		}
	}

	return tx.Commit()
}

// GetTask retrieves a task by ID
func (s *Scope) GetTask(ctx context.Context, id string) (models.Task, error) {
	var r taskRow
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ? AND owner = ?
	`, id, s.owner).Scan(r.scanDest()...)
	if err != nil {
		return models.Task{}, err
	}
	return r.toModel()
}

// ListTasks returns all tasks in creation order, catalog order within a project
func (s *Scope) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE owner = ?
		ORDER BY created_at ASC, position ASC
	`, s.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var r taskRow
		if err := rows.Scan(r.scanDest()...); err != nil {
			return nil, err
		}
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskWithHistory writes the fields present in u. When entry is
// non-nil it is appended to the task's history in the same transaction, so
// either both land or neither does.
func (s *Scope) UpdateTaskWithHistory(ctx context.Context, id string, entry *models.HistoryEntry, u models.TaskUpdate) (err error) {
	if err := u.Validate(); err != nil {
		return err
	}
	if entry != nil && entry.TaskID != id {
		return fmt.Errorf("history entry for task %q on update of %q: %w", entry.TaskID, id, seoerrors.ErrInvalidInput)
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if entry != nil {
		if err = s.insertHistoryEntry(ctx, tx, *entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	if err = s.updateTaskFields(ctx, tx, id, u); err != nil {
		return err
	}
	return tx.Commit()
}

// updateTaskFields writes only the fields present in u
func (s *Scope) updateTaskFields(ctx context.Context, ex execer, id string, u models.TaskUpdate) error {
	sets, args, err := taskAssignments(u)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id, s.owner)
	res, err := ex.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner = ?",
		args...)
	if err != nil {
		return err
	}
	return requireAffected(res, "task", id)
}

// taskAssignments maps the present fields of u to SET clauses
func taskAssignments(u models.TaskUpdate) ([]string, []any, error) {
	var sets []string
	var args []any
	add := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Rationale != nil {
		add("rationale", *u.Rationale)
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.CompletionDate != nil {
		add("completion_date", formatTime(*u.CompletionDate))
	}
	if u.Notes != nil {
		add("notes", *u.Notes)
	}
	if u.ProofURL != nil {
		add("proof_url", *u.ProofURL)
	}
	if u.MinutesSpent != nil {
		add("minutes_spent", *u.MinutesSpent)
	}
	if u.SetAttachments {
		encoded, err := encodeList(u.Attachments)
		if err != nil {
			return nil, nil, err
		}
		add("attachments", encoded)
	}
	return sets, args, nil
}
