package db

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/seotrack/internal/catalog"
	"github.com/tgienger/seotrack/internal/clock"
	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/models"
)

func setupTestDB(t *testing.T) (*DB, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"), time.Second, WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, clk
}

func scope(t *testing.T, db *DB, owner string) *Scope {
	t.Helper()
	s, err := db.ForOwner(owner)
	require.NoError(t, err)
	return s
}

func seedProject(t *testing.T, s *Scope, name string) models.Project {
	t.Helper()
	ctx := context.Background()
	p, err := s.InsertProject(ctx, models.ProjectFields{Name: name, Domain: name + ".com", StartDate: "2026-04-01"})
	require.NoError(t, err)
	require.NoError(t, s.InsertTasksForProject(ctx, p.ID, catalog.All()))
	return p
}

func TestRowMappingCoversModel(t *testing.T) {
	count := func(cols string) int { return len(strings.Split(cols, ",")) }

	var pr projectRow
	assert.Equal(t, count(projectColumns), len(pr.scanDest()))
	assert.Equal(t, count(projectColumns), len(pr.values()))
	// owner is the only column not on the model
	assert.Equal(t, count(projectColumns)-1, reflect.TypeOf(models.Project{}).NumField())

	var tr taskRow
	assert.Equal(t, count(taskColumns), len(tr.scanDest()))
	assert.Equal(t, count(taskColumns), len(tr.values()))
	// owner and position are storage-only
	assert.Equal(t, count(taskColumns)-2, reflect.TypeOf(models.Task{}).NumField())

	var hr historyRow
	assert.Equal(t, count(historyColumns), len(hr.scanDest()))
	assert.Equal(t, count(historyColumns), len(hr.values()))
	assert.Equal(t, count(historyColumns)-1, reflect.TypeOf(models.HistoryEntry{}).NumField())
}

func TestForOwner_RejectsEmpty(t *testing.T) {
	db, _ := setupTestDB(t)
	_, err := db.ForOwner("  ")
	assert.ErrorIs(t, err, seoerrors.ErrEmptyValue)
}

func TestInsertTasksForProject_SeedsCatalog(t *testing.T) {
	db, _ := setupTestDB(t)
	s := scope(t, db, "alice")
	p := seedProject(t, s, "acme")

	snap, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, p.ID, snap.Projects[0].ID)

	templates := catalog.All()
	require.Len(t, snap.Tasks, len(templates))
	for i, task := range snap.Tasks {
		tmpl := templates[i]
		assert.Equal(t, tmpl.Title, task.Title)
		assert.Equal(t, tmpl.Category, task.Category)
		assert.Equal(t, tmpl.ExecutionSteps, task.ExecutionSteps)
		assert.Equal(t, tmpl.Tools, task.Tools)
		assert.Equal(t, tmpl.Impact, task.Impact)
		assert.Equal(t, tmpl.Priority, task.Priority)
		assert.Equal(t, models.StatusNotStarted, task.Status)
		assert.Empty(t, task.Notes)
		assert.Empty(t, task.Attachments)
		assert.Zero(t, task.MinutesSpent)
		assert.Nil(t, task.CompletionDate)
	}
}

func TestInsertTasksForProject_OtherOwnersProject(t *testing.T) {
	db, _ := setupTestDB(t)
	alice := scope(t, db, "alice")
	bob := scope(t, db, "bob")
	p, err := alice.InsertProject(context.Background(), models.ProjectFields{Name: "a", Domain: "a.com"})
	require.NoError(t, err)

	err = bob.InsertTasksForProject(context.Background(), p.ID, catalog.All())
	assert.ErrorIs(t, err, seoerrors.ErrNotFound)
}

func TestOwnerIsolation(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	alice := scope(t, db, "alice")
	bob := scope(t, db, "bob")
	p := seedProject(t, alice, "acme")

	snap, err := bob.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Projects)
	assert.Empty(t, snap.Tasks)

	aliceSnap, err := alice.FetchAll(ctx)
	require.NoError(t, err)
	taskID := aliceSnap.Tasks[0].ID

	notes := "hijack"
	assert.ErrorIs(t, bob.UpdateTaskWithHistory(ctx, taskID, nil, models.TaskUpdate{Notes: &notes}), seoerrors.ErrNotFound)
	assert.ErrorIs(t, bob.UpdateTaskWithHistory(ctx, taskID, &models.HistoryEntry{TaskID: taskID}, models.TaskUpdate{Notes: &notes}), seoerrors.ErrNotFound)
	assert.ErrorIs(t, bob.DeleteProject(ctx, p.ID), seoerrors.ErrNotFound)

	task, err := alice.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Empty(t, task.Notes)
	aliceSnap, err = alice.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, aliceSnap.History)
}

func TestUpdateTaskWithHistory_Sparse(t *testing.T) {
	db, clk := setupTestDB(t)
	ctx := context.Background()
	s := scope(t, db, "alice")
	seedProject(t, s, "acme")
	snap, err := s.FetchAll(ctx)
	require.NoError(t, err)
	id := snap.Tasks[0].ID

	notes := "first"
	minutes := 30
	require.NoError(t, s.UpdateTaskWithHistory(ctx, id, nil, models.TaskUpdate{Notes: &notes, MinutesSpent: &minutes}))

	done := models.StatusDone
	completed := clk.Now()
	require.NoError(t, s.UpdateTaskWithHistory(ctx, id, nil, models.TaskUpdate{Status: &done, CompletionDate: &completed}))
	require.NoError(t, s.UpdateTaskWithHistory(ctx, id, nil, models.WithAttachments([]string{"https://x/a.png"})))

	task, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first", task.Notes)
	assert.Equal(t, 30, task.MinutesSpent)
	assert.Equal(t, models.StatusDone, task.Status)
	require.NotNil(t, task.CompletionDate)
	assert.True(t, completed.Equal(*task.CompletionDate))
	assert.Equal(t, []string{"https://x/a.png"}, task.Attachments)

	neg := -1
	assert.ErrorIs(t, s.UpdateTaskWithHistory(ctx, id, nil, models.TaskUpdate{MinutesSpent: &neg}), seoerrors.ErrInvalidInput)
	assert.NoError(t, s.UpdateTaskWithHistory(ctx, id, nil, models.TaskUpdate{}))
}

func TestUpdateTaskWithHistory_Atomic(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	s := scope(t, db, "alice")
	seedProject(t, s, "acme")
	snap, err := s.FetchAll(ctx)
	require.NoError(t, err)
	id := snap.Tasks[0].ID

	done := models.StatusDone
	entry := models.HistoryEntry{
		TaskID: id, TaskTitle: "t", Category: models.CategoryTechnical,
		OldStatus: models.StatusNotStarted, NewStatus: done, Actor: "alice",
	}

	t.Run("both land", func(t *testing.T) {
		require.NoError(t, s.UpdateTaskWithHistory(ctx, id, &entry, models.TaskUpdate{Status: &done}))
		snap, err := s.FetchAll(ctx)
		require.NoError(t, err)
		require.Len(t, snap.History, 1)
		assert.Equal(t, done, snap.History[0].NewStatus)
		task, err := s.GetTask(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, done, task.Status)
	})

	t.Run("failed update leaves no history", func(t *testing.T) {
		_, err := db.conn.ExecContext(ctx, `
			CREATE TRIGGER block_task_update BEFORE UPDATE ON tasks
			BEGIN SELECT RAISE(ABORT, 'blocked'); END`)
		require.NoError(t, err)
		t.Cleanup(func() { _, _ = db.conn.ExecContext(ctx, "DROP TRIGGER IF EXISTS block_task_update") })

		inProgress := models.StatusInProgress
		again := entry
		again.OldStatus, again.NewStatus = done, inProgress
		err = s.UpdateTaskWithHistory(ctx, id, &again, models.TaskUpdate{Status: &inProgress})
		require.ErrorContains(t, err, "blocked")

		snap, err := s.FetchAll(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.History, 1, "history insert rolled back")
	})

	t.Run("entry for another task", func(t *testing.T) {
		other := entry
		other.TaskID = snap.Tasks[1].ID
		err := s.UpdateTaskWithHistory(ctx, id, &other, models.TaskUpdate{Status: &done})
		assert.ErrorIs(t, err, seoerrors.ErrInvalidInput)
	})
}

func TestFetchAll_Ordering(t *testing.T) {
	db, clk := setupTestDB(t)
	ctx := context.Background()
	s := scope(t, db, "alice")

	first := seedProject(t, s, "first")
	clk.Advance(time.Minute)
	second := seedProject(t, s, "second")

	snap, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Projects, 2)
	assert.Equal(t, second.ID, snap.Projects[0].ID, "projects newest first")
	assert.Equal(t, first.ID, snap.Tasks[0].ProjectID, "tasks oldest first")
	assert.Equal(t, catalog.All()[0].Title, snap.Tasks[0].Title)

	taskID := snap.Tasks[0].ID
	for i, st := range []models.Status{models.StatusInProgress, models.StatusDone} {
		clk.Advance(time.Second)
		require.NoError(t, s.UpdateTaskWithHistory(ctx, taskID, &models.HistoryEntry{
			TaskID: taskID, TaskTitle: "t", Category: models.CategoryTechnical,
			OldStatus: models.Statuses()[i], NewStatus: st, Actor: "alice",
		}, models.TaskUpdate{Status: &st}))
	}

	snap, err = s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.History, 2)
	assert.Equal(t, models.StatusDone, snap.History[0].NewStatus, "history newest first")
}

func TestDeleteProject_Cascades(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()
	s := scope(t, db, "alice")
	keep := seedProject(t, s, "keep")
	gone := seedProject(t, s, "gone")

	snap, err := s.FetchAll(ctx)
	require.NoError(t, err)
	inProgress := models.StatusInProgress
	for _, task := range snap.Tasks {
		require.NoError(t, s.UpdateTaskWithHistory(ctx, task.ID, &models.HistoryEntry{
			TaskID: task.ID, TaskTitle: task.Title, Category: task.Category,
			OldStatus: models.StatusNotStarted, NewStatus: inProgress,
		}, models.TaskUpdate{Status: &inProgress}))
	}

	require.NoError(t, s.DeleteProject(ctx, gone.ID))

	snap, err = s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, keep.ID, snap.Projects[0].ID)
	assert.Len(t, snap.Tasks, catalog.Len())
	assert.Len(t, snap.History, catalog.Len())

	taskIDs := map[string]bool{}
	for _, task := range snap.Tasks {
		assert.Equal(t, keep.ID, task.ProjectID)
		taskIDs[task.ID] = true
	}
	for _, h := range snap.History {
		assert.True(t, taskIDs[h.TaskID], "orphan history entry %s", h.ID)
	}

	count, err := s.ProjectCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFetchAll_CancelledContext(t *testing.T) {
	db, _ := setupTestDB(t)
	s := scope(t, db, "alice")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchAll(ctx)
	assert.ErrorIs(t, err, seoerrors.ErrRemoteFetch)
}
