package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/metrics"
	"github.com/tgienger/seotrack/internal/models"
)

// backend is the mode-specific half of every mutation. Each method receives
// a private copy of the current snapshot and returns the snapshot to commit.
type backend interface {
	mode() Mode
	// ready is called under opMu before a mutation reads the snapshot
	ready(ctx context.Context) error
	createProject(ctx context.Context, cur models.Snapshot, fields models.ProjectFields) (string, models.Snapshot, error)
	// updateTask appends entry (when non-nil) before applying u
	updateTask(ctx context.Context, cur models.Snapshot, taskID string, entry *models.HistoryEntry, u models.TaskUpdate) (models.Snapshot, error)
	putAttachment(ctx context.Context, taskID, filename string, data []byte) (string, error)
	// dropAttachment removes the stored object behind ref, if any. Failures
	// are logged and swallowed.
	dropAttachment(ctx context.Context, ref string)
	deleteProject(ctx context.Context, cur models.Snapshot, projectID string) (models.Snapshot, error)
}

// guestBackend edits the snapshot in memory and saves the whole blob
type guestBackend struct {
	s *Store
	// loadErr is the last failed read of the blob; while set, nothing is saved
	loadErr error
}

func (s *Store) newGuestBackend(loadErr error) *guestBackend {
	return &guestBackend{s: s, loadErr: loadErr}
}

func (g *guestBackend) mode() Mode { return ModeGuest }

// ready retries a failed blob read and adopts its snapshot on success
func (g *guestBackend) ready(ctx context.Context) error {
	if g.loadErr == nil {
		return nil
	}
	snap, err := g.s.local.Load(ctx)
	if err != nil {
		g.loadErr = err
		return fmt.Errorf("%w: %w", seoerrors.ErrGuestUnavailable, err)
	}
	g.loadErr = nil
	g.s.log.Info().Int("projects", len(snap.Projects)).Msg("guest data loaded after retry")
	g.s.commit("reload", snap)
	return nil
}

func (g *guestBackend) save(ctx context.Context, next models.Snapshot) (models.Snapshot, error) {
	if g.loadErr != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", seoerrors.ErrGuestUnavailable, g.loadErr)
	}
	if err := g.s.local.Save(ctx, next); err != nil {
		return models.Snapshot{}, err
	}
	return next, nil
}

func (g *guestBackend) createProject(ctx context.Context, cur models.Snapshot, fields models.ProjectFields) (string, models.Snapshot, error) {
	now := g.s.now()
	p := models.Project{
		ID:         uuid.NewString(),
		Name:       fields.Name,
		Domain:     fields.Domain,
		StartDate:  fields.StartDate,
		ClientName: fields.ClientName,
		Industry:   fields.Industry,
		CreatedAt:  now,
	}

	templates := g.s.templates()
	tasks := make([]models.Task, 0, len(templates))
	for _, tmpl := range templates {
		t := models.NewTaskFromTemplate(p.ID, tmpl, now)
		t.ID = uuid.NewString()
		tasks = append(tasks, t)
	}

	// projects newest first, tasks in creation order, as the remote fetch returns them
	cur.Projects = append([]models.Project{p}, cur.Projects...)
	cur.Tasks = append(cur.Tasks, tasks...)

	next, err := g.save(ctx, cur)
	if err != nil {
		return "", models.Snapshot{}, fmt.Errorf("%w: %w", seoerrors.ErrProjectCreate, err)
	}
	return p.ID, next, nil
}

func (g *guestBackend) updateTask(ctx context.Context, cur models.Snapshot, taskID string, entry *models.HistoryEntry, u models.TaskUpdate) (models.Snapshot, error) {
	i := cur.TaskIndex(taskID)
	if i < 0 {
		return models.Snapshot{}, fmt.Errorf("task %q: %w", taskID, seoerrors.ErrNotFound)
	}
	if entry != nil {
		cur.History = append([]models.HistoryEntry{*entry}, cur.History...)
	}
	cur.Tasks[i] = u.Apply(cur.Tasks[i])
	return g.save(ctx, cur)
}

// putAttachment inlines the file as a data URI
func (g *guestBackend) putAttachment(_ context.Context, _ string, filename string, data []byte) (string, error) {
	return DataURI(filename, data), nil
}

func (g *guestBackend) dropAttachment(context.Context, string) {}

func (g *guestBackend) deleteProject(ctx context.Context, cur models.Snapshot, projectID string) (models.Snapshot, error) {
	// cascade is computed before anything is removed
	doomed := map[string]bool{}
	for _, t := range cur.Tasks {
		if t.ProjectID == projectID {
			doomed[t.ID] = true
		}
	}

	next := models.Snapshot{
		Projects: make([]models.Project, 0, len(cur.Projects)),
		Tasks:    make([]models.Task, 0, len(cur.Tasks)-len(doomed)),
		History:  make([]models.HistoryEntry, 0, len(cur.History)),
	}
	for _, p := range cur.Projects {
		if p.ID != projectID {
			next.Projects = append(next.Projects, p)
		}
	}
	for _, t := range cur.Tasks {
		if !doomed[t.ID] {
			next.Tasks = append(next.Tasks, t)
		}
	}
	for _, h := range cur.History {
		if !doomed[h.TaskID] {
			next.History = append(next.History, h)
		}
	}
	return g.save(ctx, next)
}

// DataURI encodes data as a self-contained data: URI. The media type is
// sniffed from the content, falling back to the file extension.
func DataURI(filename string, data []byte) string {
	mediaType := http.DetectContentType(data)
	if strings.HasPrefix(mediaType, "application/octet-stream") || strings.HasPrefix(mediaType, "text/plain") {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
			mediaType = byExt
		}
	}
	mediaType = strings.ReplaceAll(mediaType, " ", "")
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// cloudBackend writes through to the owner's remote scope and re-fetches
type cloudBackend struct {
	s       *Store
	userID  string
	scope   RemoteScope
	objects ObjectScope
	log     zerolog.Logger
}

func (s *Store) newCloudBackend(userID string) (*cloudBackend, error) {
	if s.remote == nil {
		return nil, errors.New("remote backend not configured")
	}
	scope, err := s.remote.ForOwner(userID)
	if err != nil {
		return nil, err
	}
	cb := &cloudBackend{
		s:      s,
		userID: userID,
		scope:  scope,
		log:    s.log.With().Str("user", userID).Logger(),
	}
	if s.objects != nil {
		cb.objects = s.objects.ForOwner(userID)
	}
	return cb, nil
}

func (c *cloudBackend) mode() Mode { return ModeCloud }

func (c *cloudBackend) ready(context.Context) error { return nil }

// fetch loads the owner's full snapshot. On failure it logs and returns
// fallback, so the caller keeps its last-known-good state.
func (c *cloudBackend) fetch(ctx context.Context, fallback models.Snapshot) models.Snapshot {
	start := c.s.clock.Now()
	snap, err := c.scope.FetchAll(ctx)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	c.s.metrics.RecordFetch(ctx, c.s.clock.Now().Sub(start), outcome)

	if err != nil {
		c.log.Error().Err(err).Msg("remote fetch failed")
		return fallback
	}
	c.log.Debug().
		Int("projects", len(snap.Projects)).
		Int("tasks", len(snap.Tasks)).
		Int("history", len(snap.History)).
		Msg("remote snapshot fetched")
	return snap
}

func (c *cloudBackend) createProject(ctx context.Context, cur models.Snapshot, fields models.ProjectFields) (string, models.Snapshot, error) {
	p, err := c.scope.InsertProject(ctx, fields)
	if err != nil {
		return "", models.Snapshot{}, fmt.Errorf("%w: %w", seoerrors.ErrProjectCreate, err)
	}

	if err := c.scope.InsertTasksForProject(ctx, p.ID, c.s.templates()); err != nil {
		// no project may exist without its full task set
		if delErr := c.scope.DeleteProject(ctx, p.ID); delErr != nil {
			c.log.Error().Err(delErr).Str("project", p.ID).Msg("failed to remove project after seeding failure")
		}
		return "", models.Snapshot{}, fmt.Errorf("%w: seed tasks: %w", seoerrors.ErrProjectCreate, err)
	}

	return p.ID, c.fetch(ctx, cur), nil
}

func (c *cloudBackend) updateTask(ctx context.Context, cur models.Snapshot, taskID string, entry *models.HistoryEntry, u models.TaskUpdate) (models.Snapshot, error) {
	if err := c.scope.UpdateTaskWithHistory(ctx, taskID, entry, u); err != nil {
		return models.Snapshot{}, seoerrors.Wrap(err, "update task")
	}
	return c.fetch(ctx, cur), nil
}

func (c *cloudBackend) putAttachment(ctx context.Context, taskID, filename string, data []byte) (string, error) {
	if c.objects == nil {
		return "", errors.New("attachment store not configured")
	}
	return c.objects.Upload(ctx, taskID, filename, data)
}

func (c *cloudBackend) dropAttachment(ctx context.Context, ref string) {
	if c.objects == nil {
		return
	}
	path, ok := c.objects.PathFromURL(ref)
	if !ok {
		return
	}
	if err := c.objects.Delete(ctx, path); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("attachment object not deleted")
	}
}

func (c *cloudBackend) deleteProject(ctx context.Context, cur models.Snapshot, projectID string) (models.Snapshot, error) {
	if err := c.scope.DeleteProject(ctx, projectID); err != nil {
		return models.Snapshot{}, seoerrors.Wrap(err, "delete project")
	}
	return c.fetch(ctx, cur), nil
}
