package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/tgienger/seotrack/internal/models"
)

// insertHistoryEntry appends a status change for a task owned by the scope
func (s *Scope) insertHistoryEntry(ctx context.Context, ex execer, h models.HistoryEntry) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = s.now()
	}
	row := historyRowFrom(s.owner, h)

	args := append(row.values(), h.TaskID, s.owner)
	res, err := ex.ExecContext(ctx, `
		INSERT INTO history (`+historyColumns+`)
		SELECT `+placeholders(historyColumns)+`
		WHERE EXISTS (SELECT 1 FROM tasks WHERE id = ? AND owner = ?)
	`, args...)
	if err != nil {
		return err
	}
	return requireAffected(res, "task", h.TaskID)
}

// ListHistory returns all history entries, newest first
func (s *Scope) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+historyColumns+`
		FROM history WHERE owner = ?
		ORDER BY changed_at DESC
	`, s.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var r historyRow
		if err := rows.Scan(r.scanDest()...); err != nil {
			return nil, err
		}
		h, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}
