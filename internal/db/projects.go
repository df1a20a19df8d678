package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/tgienger/seotrack/internal/models"
)

// InsertProject creates a new project owned by the scope
func (s *Scope) InsertProject(ctx context.Context, fields models.ProjectFields) (models.Project, error) {
	p := models.Project{
		ID:         uuid.NewString(),
		Name:       fields.Name,
		Domain:     fields.Domain,
		StartDate:  fields.StartDate,
		ClientName: fields.ClientName,
		Industry:   fields.Industry,
		CreatedAt:  s.now(),
	}
	row := projectRowFrom(s.owner, p)

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (`+placeholders(projectColumns)+`)`,
		row.values()...)
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// ListProjects returns all projects, newest first
func (s *Scope) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE owner = ?
		ORDER BY created_at DESC
	`, s.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var r projectRow
		if err := rows.Scan(r.scanDest()...); err != nil {
			return nil, err
		}
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject deletes a project; its tasks and their history go with it
func (s *Scope) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM projects WHERE id = ? AND owner = ?", id, s.owner)
	if err != nil {
		return err
	}
	return requireAffected(res, "project", id)
}

// ProjectCount returns the number of projects
func (s *Scope) ProjectCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE owner = ?", s.owner).Scan(&count)
	return count, err
}
