package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/seotrack/internal/bus"
	"github.com/tgienger/seotrack/internal/catalog"
	"github.com/tgienger/seotrack/internal/clock"
	"github.com/tgienger/seotrack/internal/db"
	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/flock"
	"github.com/tgienger/seotrack/internal/local"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/objstore"
)

const bucketURL = "https://files.example.com/a"

type fixture struct {
	store  *Store
	local  *local.Store
	db     *db.DB
	bucket *objstore.Bucket
	remote *faultyRemote
	clock  *clock.Manual
}

func setupTestStore(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	clk := clock.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	ls, err := local.New(dir, "", zerolog.Nop())
	require.NoError(t, err)
	d, err := db.New(context.Background(), filepath.Join(dir, "cloud.db"), time.Second, db.WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	b, err := objstore.New(filepath.Join(dir, "attachments"), bucketURL, objstore.WithClock(clk))
	require.NoError(t, err)

	remote := &faultyRemote{inner: FromDB(d)}
	s := New(ls, remote, FromBucket(b), append([]Option{WithClock(clk)}, opts...)...)
	s.Init(context.Background())
	return &fixture{store: s, local: ls, db: d, bucket: b, remote: remote, clock: clk}
}

// faultyRemote wraps a real remote and fails selected calls
type faultyRemote struct {
	inner     Remote
	failSeed  bool
	failFetch bool
}

func (r *faultyRemote) ForOwner(owner string) (RemoteScope, error) {
	scope, err := r.inner.ForOwner(owner)
	if err != nil {
		return nil, err
	}
	return &faultyScope{RemoteScope: scope, r: r}, nil
}

type faultyScope struct {
	RemoteScope
	r *faultyRemote
}

var errInjected = errors.New("injected failure")

func (s *faultyScope) InsertTasksForProject(ctx context.Context, projectID string, templates []models.TaskTemplate) error {
	if s.r.failSeed {
		return errInjected
	}
	return s.RemoteScope.InsertTasksForProject(ctx, projectID, templates)
}

func (s *faultyScope) FetchAll(ctx context.Context) (models.Snapshot, error) {
	if s.r.failFetch {
		return models.Snapshot{}, errInjected
	}
	return s.RemoteScope.FetchAll(ctx)
}

// failingObjects fails every object delete
type failingObjects struct{ Objects }

func (f failingObjects) ForOwner(owner string) ObjectScope {
	return failingObjectScope{f.Objects.ForOwner(owner)}
}

type failingObjectScope struct{ ObjectScope }

func (failingObjectScope) Delete(context.Context, string) error { return errInjected }

func fiveLowTemplates() []models.TaskTemplate {
	out := make([]models.TaskTemplate, 5)
	for i := range out {
		out[i] = models.TaskTemplate{
			Category: models.CategoryTechnical,
			Title:    "task " + string(rune('A'+i)),
			Impact:   models.ImpactLow,
			Priority: models.PriorityMedium,
		}
	}
	return out
}

func createProject(t *testing.T, s *Store, name string) string {
	t.Helper()
	id, err := s.CreateProject(context.Background(), models.ProjectFields{Name: name, Domain: name + ".com"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func setStatus(t *testing.T, s *Store, taskID string, st models.Status) {
	t.Helper()
	require.NoError(t, s.UpdateTask(context.Background(), taskID, models.TaskUpdate{Status: &st}))
}

func eachMode(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Run("guest", func(t *testing.T) {
		fn(t, setupTestStore(t))
	})
	t.Run("cloud", func(t *testing.T) {
		f := setupTestStore(t)
		f.store.SetIdentity(context.Background(), "alice")
		require.Equal(t, State{Mode: ModeCloud, UserID: "alice"}, f.store.State())
		fn(t, f)
	})
}

func TestCreateProject_SeedsCatalog(t *testing.T) {
	eachMode(t, func(t *testing.T, f *fixture) {
		id := createProject(t, f.store, "acme")

		p, ok := f.store.Project(id)
		require.True(t, ok)
		assert.Equal(t, "acme.com", p.Domain)

		tasks := f.store.TasksOf(id, TaskFilter{})
		templates := catalog.All()
		require.Len(t, tasks, len(templates))
		for i, task := range tasks {
			tmpl := templates[i]
			assert.Equal(t, tmpl.Category, task.Category)
			assert.Equal(t, tmpl.Title, task.Title)
			assert.Equal(t, tmpl.ExecutionSteps, task.ExecutionSteps)
			assert.Equal(t, tmpl.Tools, task.Tools)
			assert.Equal(t, tmpl.Impact, task.Impact)
			assert.Equal(t, tmpl.Priority, task.Priority)
			assert.Equal(t, models.StatusNotStarted, task.Status)
			assert.Empty(t, task.Notes)
			assert.Empty(t, task.ProofURL)
			assert.Zero(t, task.MinutesSpent)
			assert.Empty(t, task.Attachments)
		}
	})
}

func TestCreateProject_InvalidFields(t *testing.T) {
	f := setupTestStore(t)
	id, err := f.store.CreateProject(context.Background(), models.ProjectFields{Name: "no domain"})
	assert.Empty(t, id)
	assert.ErrorIs(t, err, seoerrors.ErrInvalidInput)
	assert.Empty(t, f.store.Projects())
}

func TestCreateProject_SeedFailureRollsBack(t *testing.T) {
	f := setupTestStore(t)
	ctx := context.Background()
	f.store.SetIdentity(ctx, "alice")
	f.remote.failSeed = true

	id, err := f.store.CreateProject(ctx, models.ProjectFields{Name: "acme", Domain: "acme.com"})
	assert.Empty(t, id)
	assert.ErrorIs(t, err, seoerrors.ErrProjectCreate)
	assert.Empty(t, f.store.Projects())

	scope, err := f.db.ForOwner("alice")
	require.NoError(t, err)
	count, err := scope.ProjectCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "half-created project must be removed")
}

func TestScoreAndStats(t *testing.T) {
	f := setupTestStore(t, WithTemplates(fiveLowTemplates))
	id := createProject(t, f.store, "acme")
	tasks := f.store.TasksOf(id, TaskFilter{})

	assert.Equal(t, 0, f.store.ScoreOf(id))

	setStatus(t, f.store, tasks[0].ID, models.StatusDone)
	setStatus(t, f.store, tasks[1].ID, models.StatusInProgress)
	setStatus(t, f.store, tasks[2].ID, models.StatusSkipped)
	assert.Equal(t, 20, f.store.ScoreOf(id))

	st := f.store.StatsOf(id)
	assert.Equal(t, Stats{Total: 5, NotStarted: 2, InProgress: 1, Done: 1, Skipped: 1}, st)
	assert.Equal(t, st.Total, st.NotStarted+st.InProgress+st.Done+st.Skipped)

	for _, task := range tasks {
		setStatus(t, f.store, task.ID, models.StatusDone)
	}
	assert.Equal(t, 100, f.store.ScoreOf(id))
	assert.Equal(t, 0, f.store.ScoreOf("missing"))

	cats := f.store.CategoryScoresOf(id)
	require.Len(t, cats, 1)
	assert.Equal(t, CategoryScore{Category: models.CategoryTechnical, Score: 100, Tasks: 5, Done: 5}, cats[0])
}

func TestScore_Weights(t *testing.T) {
	tasks := []models.Task{
		{Impact: models.ImpactHigh, Status: models.StatusDone},
		{Impact: models.ImpactMedium},
		{Impact: models.ImpactLow, Status: models.StatusSkipped},
	}
	assert.Equal(t, 50, Score(tasks))
	assert.Equal(t, 0, Score(nil))
}

func TestUpdateTask_History(t *testing.T) {
	eachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		id := createProject(t, f.store, "acme")
		task := f.store.TasksOf(id, TaskFilter{})[0]

		inProgress := models.StatusInProgress
		newTitle := "Renamed"
		require.NoError(t, f.store.UpdateTask(ctx, task.ID, models.TaskUpdate{
			Status: &inProgress, Title: &newTitle, ChangeNote: "kicked off",
		}))

		history := f.store.HistoryOf(id)
		require.Len(t, history, 1)
		h := history[0]
		assert.Equal(t, task.ID, h.TaskID)
		assert.Equal(t, task.Title, h.TaskTitle, "title snapshot taken before the update")
		assert.Equal(t, task.Category, h.Category)
		assert.Equal(t, models.StatusNotStarted, h.OldStatus)
		assert.Equal(t, models.StatusInProgress, h.NewStatus)
		assert.Equal(t, "kicked off", h.Notes)

		got, ok := f.store.Task(task.ID)
		require.True(t, ok)
		assert.Equal(t, "Renamed", got.Title)

		// same status again appends nothing
		f.clock.Advance(time.Second)
		require.NoError(t, f.store.UpdateTask(ctx, task.ID, models.TaskUpdate{Status: &inProgress}))
		assert.Len(t, f.store.HistoryOf(id), 1)

		f.clock.Advance(time.Second)
		setStatus(t, f.store, task.ID, models.StatusDone)
		history = f.store.HistoryOf(id)
		require.Len(t, history, 2)
		assert.Equal(t, models.StatusDone, history[0].NewStatus, "newest first")
		assert.Equal(t, "Renamed", history[0].TaskTitle)
	})
}

func TestUpdateTask_Actor(t *testing.T) {
	eachMode(t, func(t *testing.T, f *fixture) {
		id := createProject(t, f.store, "acme")
		task := f.store.TasksOf(id, TaskFilter{})[0]
		setStatus(t, f.store, task.ID, models.StatusInProgress)

		want := GuestActor
		if st := f.store.State(); st.Mode == ModeCloud {
			want = st.UserID
		}
		assert.Equal(t, want, f.store.HistoryOf(id)[0].Actor)
	})
}

func TestUpdateTask_CompletionDate(t *testing.T) {
	eachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		id := createProject(t, f.store, "acme")
		tasks := f.store.TasksOf(id, TaskFilter{})
		done := models.StatusDone

		setStatus(t, f.store, tasks[0].ID, done)
		got, _ := f.store.Task(tasks[0].ID)
		require.NotNil(t, got.CompletionDate)
		assert.True(t, f.clock.Now().Equal(*got.CompletionDate))

		explicit := time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)
		require.NoError(t, f.store.UpdateTask(ctx, tasks[1].ID, models.TaskUpdate{Status: &done, CompletionDate: &explicit}))
		got, _ = f.store.Task(tasks[1].ID)
		require.NotNil(t, got.CompletionDate)
		assert.True(t, explicit.Equal(*got.CompletionDate))
	})
}

func TestUpdateTask_SparseAndValidation(t *testing.T) {
	eachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		id := createProject(t, f.store, "acme")
		task := f.store.TasksOf(id, TaskFilter{})[0]

		notes := "checked robots.txt"
		minutes := 45
		require.NoError(t, f.store.UpdateTask(ctx, task.ID, models.TaskUpdate{Notes: &notes, MinutesSpent: &minutes}))
		proof := "https://acme.com/robots.txt"
		require.NoError(t, f.store.UpdateTask(ctx, task.ID, models.TaskUpdate{ProofURL: &proof}))

		got, _ := f.store.Task(task.ID)
		assert.Equal(t, notes, got.Notes)
		assert.Equal(t, 45, got.MinutesSpent)
		assert.Equal(t, proof, got.ProofURL)
		assert.Equal(t, models.StatusNotStarted, got.Status)
		assert.Empty(t, f.store.HistoryOf(id))

		neg := -1
		assert.ErrorIs(t, f.store.UpdateTask(ctx, task.ID, models.TaskUpdate{MinutesSpent: &neg}), seoerrors.ErrInvalidInput)

		assert.NoError(t, f.store.UpdateTask(ctx, "no-such-task", models.TaskUpdate{Notes: &notes}))
	})
}

func TestDeleteProject_Cascade(t *testing.T) {
	eachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		keep := createProject(t, f.store, "keep")
		gone := createProject(t, f.store, "gone")
		for _, id := range []string{keep, gone} {
			for _, task := range f.store.TasksOf(id, TaskFilter{})[:3] {
				setStatus(t, f.store, task.ID, models.StatusInProgress)
			}
		}

		require.NoError(t, f.store.DeleteProject(ctx, gone))

		snap := f.store.Snapshot()
		require.Len(t, snap.Projects, 1)
		assert.Equal(t, keep, snap.Projects[0].ID)
		assert.Len(t, snap.Tasks, catalog.Len())
		taskIDs := map[string]bool{}
		for _, task := range snap.Tasks {
			assert.Equal(t, keep, task.ProjectID)
			taskIDs[task.ID] = true
		}
		require.Len(t, snap.History, 3)
		for _, h := range snap.History {
			assert.True(t, taskIDs[h.TaskID], "orphan history %s", h.ID)
		}

		assert.NoError(t, f.store.DeleteProject(ctx, gone), "already gone is a no-op")
	})
}

func TestGuestData_Persisted(t *testing.T) {
	f := setupTestStore(t)
	id := createProject(t, f.store, "acme")

	reloaded := New(f.local, nil, nil)
	reloaded.Init(context.Background())
	p, ok := reloaded.Project(id)
	require.True(t, ok)
	assert.Equal(t, "acme", p.Name)
	assert.Len(t, reloaded.TasksOf(id, TaskFilter{}), catalog.Len())
}

func TestModeSwitchIsolation(t *testing.T) {
	f := setupTestStore(t, WithTemplates(fiveLowTemplates))
	ctx := context.Background()

	p1 := createProject(t, f.store, "p1")
	tasks := f.store.TasksOf(p1, TaskFilter{})
	setStatus(t, f.store, tasks[0].ID, models.StatusDone)
	setStatus(t, f.store, tasks[1].ID, models.StatusDone)
	require.Equal(t, 40, f.store.ScoreOf(p1))
	before := f.store.Snapshot()

	f.store.SetIdentity(ctx, "alice")
	assert.Equal(t, State{Mode: ModeCloud, UserID: "alice"}, f.store.State())
	assert.False(t, f.store.Loading())
	_, visible := f.store.Project(p1)
	assert.False(t, visible, "guest project hidden while signed in")
	cloudProject := createProject(t, f.store, "cloud-only")

	f.store.SetIdentity(ctx, "")
	assert.Equal(t, State{Mode: ModeGuest}, f.store.State())
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, 40, f.store.ScoreOf(p1))
	_, visible = f.store.Project(cloudProject)
	assert.False(t, visible, "cloud project not merged into guest data")

	f.store.SetIdentity(ctx, "alice")
	_, visible = f.store.Project(cloudProject)
	assert.True(t, visible)
}

func TestSetIdentity_Transitions(t *testing.T) {
	f := setupTestStore(t)
	ctx := context.Background()
	sub := f.store.Subscribe(TopicMode)
	defer f.store.Unsubscribe(sub)

	f.store.SetIdentity(ctx, "")
	assert.Equal(t, State{Mode: ModeGuest}, f.store.State())

	f.store.SetIdentity(ctx, "alice")
	aliceProject := createProject(t, f.store, "alice-site")

	f.store.SetIdentity(ctx, "alice")
	f.store.SetIdentity(ctx, "bob")
	assert.Equal(t, State{Mode: ModeCloud, UserID: "bob"}, f.store.State())
	_, visible := f.store.Project(aliceProject)
	assert.False(t, visible, "another owner's rows are never visible")

	var modes []State
	for len(sub.Ch()) > 0 {
		ev := <-sub.Ch()
		modes = append(modes, ev.Payload.(State))
	}
	assert.Equal(t, []State{
		{Mode: ModeLoading, UserID: "alice"},
		{Mode: ModeCloud, UserID: "alice"},
		{Mode: ModeLoading, UserID: "bob"},
		{Mode: ModeCloud, UserID: "bob"},
	}, modes)
}

func TestSetIdentity_FetchFailure(t *testing.T) {
	f := setupTestStore(t)
	ctx := context.Background()
	createProject(t, f.store, "guest-site")
	f.remote.failFetch = true

	f.store.SetIdentity(ctx, "alice")

	assert.Equal(t, State{Mode: ModeCloud, UserID: "alice"}, f.store.State())
	assert.False(t, f.store.Loading())
	assert.Equal(t, models.EmptySnapshot(), f.store.Snapshot())
}

func TestAttachments_RoundTrip(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	eachMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		id := createProject(t, f.store, "acme")
		task := f.store.TasksOf(id, TaskFilter{})[0]
		before := len(task.Attachments)

		ref, err := f.store.UploadAttachment(ctx, task.ID, "shot.png", png)
		require.NoError(t, err)
		require.NotEmpty(t, ref)

		got, _ := f.store.Task(task.ID)
		assert.Equal(t, []string{ref}, got.Attachments)
		if f.store.State().Mode == ModeGuest {
			assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"), ref)
		} else {
			assert.True(t, strings.HasPrefix(ref, bucketURL+"/alice/"+task.ID+"/"), ref)
			path, ok := f.bucket.PathFromURL(ref)
			require.True(t, ok)
			assert.FileExists(t, filepath.Join(f.bucket.Root(), filepath.FromSlash(path)))
		}

		require.NoError(t, f.store.DeleteAttachment(ctx, task.ID, ref))
		got, _ = f.store.Task(task.ID)
		assert.Len(t, got.Attachments, before)

		if path, ok := f.bucket.PathFromURL(ref); ok {
			assert.NoFileExists(t, filepath.Join(f.bucket.Root(), filepath.FromSlash(path)))
		}
	})
}

func TestAttachments_Failures(t *testing.T) {
	f := setupTestStore(t, WithMaxAttachmentBytes(8))
	ctx := context.Background()
	id := createProject(t, f.store, "acme")
	task := f.store.TasksOf(id, TaskFilter{})[0]

	ref, err := f.store.UploadAttachment(ctx, task.ID, "big.png", make([]byte, 9))
	assert.Empty(t, ref)
	assert.ErrorIs(t, err, seoerrors.ErrAttachmentTooLarge)

	ref, err = f.store.UploadAttachment(ctx, "no-such-task", "a.png", []byte("x"))
	assert.Empty(t, ref)
	assert.ErrorIs(t, err, seoerrors.ErrNotFound)

	assert.NoError(t, f.store.DeleteAttachment(ctx, task.ID, "data:never-there"))
}

func TestDeleteAttachment_ObjectDeleteFailureTolerated(t *testing.T) {
	dir := t.TempDir()
	ls, err := local.New(dir, "", zerolog.Nop())
	require.NoError(t, err)
	d, err := db.New(context.Background(), filepath.Join(dir, "cloud.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	b, err := objstore.New(filepath.Join(dir, "attachments"), bucketURL)
	require.NoError(t, err)

	s := New(ls, FromDB(d), failingObjects{FromBucket(b)})
	ctx := context.Background()
	s.Init(ctx)
	s.SetIdentity(ctx, "alice")
	id := createProject(t, s, "acme")
	task := s.TasksOf(id, TaskFilter{})[0]

	ref, err := s.UploadAttachment(ctx, task.ID, "a.png", []byte("img"))
	require.NoError(t, err)
	require.NoError(t, s.DeleteAttachment(ctx, task.ID, ref))

	got, _ := s.Task(task.ID)
	assert.Empty(t, got.Attachments, "list removal proceeds even when the object delete fails")
}

func TestDeleteAttachment_DuplicateRefs(t *testing.T) {
	f := setupTestStore(t)
	ctx := context.Background()
	id := createProject(t, f.store, "acme")
	task := f.store.TasksOf(id, TaskFilter{})[0]
	png := []byte("\x89PNG\r\n\x1a\n0000")

	first, err := f.store.UploadAttachment(ctx, task.ID, "a.png", png)
	require.NoError(t, err)
	second, err := f.store.UploadAttachment(ctx, task.ID, "copy.png", png)
	require.NoError(t, err)
	require.Equal(t, first, second, "identical bytes inline to the same data URI")

	require.NoError(t, f.store.DeleteAttachment(ctx, task.ID, second))
	got, _ := f.store.Task(task.ID)
	assert.Equal(t, []string{first}, got.Attachments, "one copy survives")

	require.NoError(t, f.store.DeleteAttachment(ctx, task.ID, first))
	got, _ = f.store.Task(task.ID)
	assert.Empty(t, got.Attachments)
}

func TestDeleteAttachment_RemovesLastOccurrence(t *testing.T) {
	f := setupTestStore(t)
	ctx := context.Background()
	id := createProject(t, f.store, "acme")
	task := f.store.TasksOf(id, TaskFilter{})[0]

	refs := []string{"data:text/plain;base64,QQ==", "data:text/plain;base64,Qg==", "data:text/plain;base64,QQ=="}
	require.NoError(t, f.store.UpdateTask(ctx, task.ID, models.WithAttachments(refs)))

	require.NoError(t, f.store.DeleteAttachment(ctx, task.ID, refs[0]))
	got, _ := f.store.Task(task.ID)
	assert.Equal(t, refs[:2], got.Attachments)

	loaded, err := f.local.Load(ctx)
	require.NoError(t, err)
	i := loaded.TaskIndex(task.ID)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, refs[:2], loaded.Tasks[i].Attachments)
}

// holdGuestLock takes the guest blob lock until release is called
func holdGuestLock(t *testing.T, ls *local.Store) (release func()) {
	t.Helper()
	f, err := os.OpenFile(ls.Path()+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	require.NoError(t, err)
	require.NoError(t, flock.Exclusive(f.Fd()))
	var once sync.Once
	release = func() {
		once.Do(func() {
			_ = flock.Unlock(f.Fd())
			_ = f.Close()
		})
	}
	t.Cleanup(release)
	return release
}

func TestGuestData_LockedDuringInit(t *testing.T) {
	ctx := context.Background()
	ls, err := local.New(t.TempDir(), "", zerolog.Nop(), local.WithLockTimeout(50*time.Millisecond))
	require.NoError(t, err)

	first := New(ls, nil, nil, WithTemplates(fiveLowTemplates))
	first.Init(ctx)
	kept := createProject(t, first, "acme")

	release := holdGuestLock(t, ls)
	s := New(ls, nil, nil, WithTemplates(fiveLowTemplates))
	s.Init(ctx)
	assert.Empty(t, s.Projects())

	_, err = s.CreateProject(ctx, models.ProjectFields{Name: "beta", Domain: "beta.com"})
	require.ErrorIs(t, err, seoerrors.ErrGuestUnavailable)
	require.ErrorIs(t, s.DeleteProject(ctx, kept), seoerrors.ErrGuestUnavailable)
	assert.Empty(t, s.Projects())

	release()
	onDisk, err := ls.Load(ctx)
	require.NoError(t, err)
	require.Len(t, onDisk.Projects, 1, "blob untouched while unreadable")
	assert.Equal(t, kept, onDisk.Projects[0].ID)

	added := createProject(t, s, "beta")
	_, ok := s.Project(kept)
	assert.True(t, ok, "next mutation reads the blob first")
	_, ok = s.Project(added)
	assert.True(t, ok)

	onDisk, err = ls.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, onDisk.Projects, 2)
}

func TestGuestData_LockedDuringSignOut(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ls, err := local.New(dir, "", zerolog.Nop(), local.WithLockTimeout(50*time.Millisecond))
	require.NoError(t, err)
	d, err := db.New(ctx, filepath.Join(dir, "cloud.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	s := New(ls, FromDB(d), nil, WithTemplates(fiveLowTemplates))
	s.Init(ctx)
	kept := createProject(t, s, "acme")
	s.SetIdentity(ctx, "alice")

	release := holdGuestLock(t, ls)
	s.SetIdentity(ctx, "")
	require.Equal(t, ModeGuest, s.State().Mode)
	_, err = s.CreateProject(ctx, models.ProjectFields{Name: "beta", Domain: "beta.com"})
	require.ErrorIs(t, err, seoerrors.ErrGuestUnavailable)

	release()
	assert.Empty(t, s.TasksOf(kept, TaskFilter{}), "nothing adopted before the next mutation")
	createProject(t, s, "beta")
	assert.Len(t, s.Projects(), 2)
}

func TestTasksOf_Filter(t *testing.T) {
	f := setupTestStore(t)
	id := createProject(t, f.store, "acme")
	all := f.store.TasksOf(id, TaskFilter{})

	technical := f.store.TasksOf(id, TaskFilter{Category: models.CategoryTechnical})
	require.NotEmpty(t, technical)
	for _, task := range technical {
		assert.Equal(t, models.CategoryTechnical, task.Category)
	}

	setStatus(t, f.store, all[3].ID, models.StatusSkipped)
	skipped := f.store.TasksOf(id, TaskFilter{Status: models.StatusSkipped})
	require.Len(t, skipped, 1)
	assert.Equal(t, all[3].ID, skipped[0].ID)

	q := strings.ToUpper(all[0].Title[:6])
	found := f.store.TasksOf(id, TaskFilter{Query: q})
	assert.NotEmpty(t, found)
	assert.Empty(t, f.store.TasksOf("other", TaskFilter{}))
}

func TestReadViewsAreCopies(t *testing.T) {
	f := setupTestStore(t)
	id := createProject(t, f.store, "acme")

	tasks := f.store.TasksOf(id, TaskFilter{})
	tasks[0].Title = "mutated"
	tasks[0].ExecutionSteps[0] = "mutated"

	fresh := f.store.TasksOf(id, TaskFilter{})
	assert.NotEqual(t, "mutated", fresh[0].Title)
	assert.NotEqual(t, "mutated", fresh[0].ExecutionSteps[0])
}

func TestChangeEvents(t *testing.T) {
	b := bus.New()
	f := setupTestStore(t, WithBus(b))
	sub := f.store.Subscribe(TopicChanged)
	defer f.store.Unsubscribe(sub)

	createProject(t, f.store, "acme")

	select {
	case ev := <-sub.Ch():
		assert.Equal(t, TopicChanged, ev.Topic)
		assert.Equal(t, "create_project", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("no change event")
	}
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", DataURI("x.png", []byte("\x89PNG\r\n\x1a\n")))
	assert.True(t, strings.HasPrefix(DataURI("notes.txt", []byte("hello")), "data:text/plain;charset=utf-8;base64,"))
}
