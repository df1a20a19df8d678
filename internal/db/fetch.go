package db

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
)

// FetchAll loads the owner's projects, tasks and history as one snapshot.
// The three queries run concurrently; if any fails, nothing is returned.
func (s *Scope) FetchAll(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		projects, err := s.ListProjects(gctx)
		snap.Projects = projects
		return seoerrors.Wrap(err, "projects")
	})
	g.Go(func() error {
		tasks, err := s.ListTasks(gctx)
		snap.Tasks = tasks
		return seoerrors.Wrap(err, "tasks")
	})
	g.Go(func() error {
		history, err := s.ListHistory(gctx)
		snap.History = history
		return seoerrors.Wrap(err, "history")
	})

	if err := g.Wait(); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", seoerrors.ErrRemoteFetch, err)
	}
	return snap.Normalize(), nil
}
