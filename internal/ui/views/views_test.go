package views

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/seotrack/internal/local"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
)

func newGuestStore(t *testing.T) *store.Store {
	t.Helper()
	ls, err := local.New(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	st := store.New(ls, nil, nil)
	st.Init(context.Background())
	return st
}

func newProject(t *testing.T, st *store.Store, name, domain string) models.Project {
	t.Helper()
	id, err := st.CreateProject(context.Background(), models.ProjectFields{Name: name, Domain: domain})
	require.NoError(t, err)
	p, ok := st.Project(id)
	require.True(t, ok)
	return p
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and requires it to report a successful store operation
func run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	res, ok := cmd().(OpResult)
	require.True(t, ok)
	require.NoError(t, res.Err, res.Op)
}

func newTaskView(t *testing.T) (*TaskListView, *store.Store) {
	t.Helper()
	st := newGuestStore(t)
	p := newProject(t, st, "Acme", "acme.com")
	v := NewTaskListView(context.Background(), st, p)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	require.NotEmpty(t, v.tasks)
	return v, st
}

func TestTaskListView_StatusKeys(t *testing.T) {
	v, st := newTaskView(t)
	id := v.tasks[0].ID

	_, cmd := v.Update(press("s"))
	run(t, cmd)
	got, _ := st.Task(id)
	assert.Equal(t, models.StatusInProgress, got.Status)

	_, cmd = v.Update(press("x"))
	run(t, cmd)
	got, _ = st.Task(id)
	assert.Equal(t, models.StatusDone, got.Status)
	assert.NotNil(t, got.CompletionDate)

	require.Len(t, st.HistoryOf(got.ProjectID), 2)
}

func TestTaskListView_TimeKeys(t *testing.T) {
	v, st := newTaskView(t)
	id := v.tasks[0].ID

	_, cmd := v.Update(press("+"))
	run(t, cmd)
	v.Update(Refresh{})
	got, _ := st.Task(id)
	assert.Equal(t, 15, got.MinutesSpent)

	_, cmd = v.Update(press("-"))
	run(t, cmd)
	v.Update(Refresh{})
	got, _ = st.Task(id)
	assert.Zero(t, got.MinutesSpent)

	// nothing to take away
	_, cmd = v.Update(press("-"))
	assert.Nil(t, cmd)
	assert.Empty(t, st.HistoryOf(got.ProjectID))
}

func TestTaskListView_CategoryFilter(t *testing.T) {
	v, _ := newTaskView(t)
	all := len(v.tasks)

	v.Update(press("f"))
	require.True(t, v.categoryDropdownOpen)
	v.Update(press("down"))
	v.Update(press("enter"))

	assert.False(t, v.categoryDropdownOpen)
	assert.Equal(t, models.Categories()[0], v.category)
	assert.Less(t, len(v.tasks), all)
	for _, task := range v.tasks {
		assert.Equal(t, v.category, task.Category)
	}
}

func TestTaskListView_HideDone(t *testing.T) {
	v, _ := newTaskView(t)
	all := len(v.tasks)

	_, cmd := v.Update(press("x"))
	run(t, cmd)
	v.Update(Refresh{})

	v.Update(press("c"))
	assert.Len(t, v.tasks, all-1)
	for _, task := range v.tasks {
		assert.NotEqual(t, models.StatusDone, task.Status)
	}

	v.Update(press("c"))
	assert.Len(t, v.tasks, all)
}

func TestTaskListView_Search(t *testing.T) {
	v, _ := newTaskView(t)
	title := v.tasks[0].Title

	v.Update(press("/"))
	assert.True(t, v.Busy())
	for _, r := range title {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	v.Update(press("enter"))
	assert.False(t, v.Busy())
	require.NotEmpty(t, v.tasks)
	assert.Equal(t, title, v.tasks[0].Title)
}

func TestTaskListView_EditSavesChangedFields(t *testing.T) {
	v, st := newTaskView(t)
	id := v.tasks[0].ID

	v.Update(press("e"))
	require.True(t, v.editing)
	v.editNotes.SetValue("checked in staging")
	v.editMinutes.SetValue("30")

	_, cmd := v.Update(press("ctrl+s"))
	run(t, cmd)
	assert.False(t, v.editing)

	got, _ := st.Task(id)
	assert.Equal(t, "checked in staging", got.Notes)
	assert.Equal(t, 30, got.MinutesSpent)
	assert.Empty(t, got.ProofURL)
}

func TestTaskListView_EditRejectsBadMinutes(t *testing.T) {
	v, _ := newTaskView(t)

	v.Update(press("e"))
	v.editMinutes.SetValue("lots")
	_, cmd := v.Update(press("ctrl+s"))
	assert.Nil(t, cmd)
	assert.True(t, v.editing)
	assert.NotEmpty(t, v.editError)
}

func TestTaskListView_DetailAndHistory(t *testing.T) {
	v, _ := newTaskView(t)

	v.Update(press("enter"))
	assert.True(t, v.viewingTask)
	assert.Greater(t, v.detail.TotalLineCount(), 1)
	v.Update(press("esc"))
	assert.False(t, v.viewingTask)

	v.Update(press("h"))
	assert.True(t, v.viewingHistory)
	assert.Contains(t, v.View(), "No status changes yet")
	v.Update(press("esc"))
	assert.False(t, v.viewingHistory)
}

func TestTaskListView_BackWhenProjectGone(t *testing.T) {
	v, st := newTaskView(t)
	require.NoError(t, st.DeleteProject(context.Background(), v.ProjectID()))

	_, cmd := v.Update(Refresh{})
	require.NotNil(t, cmd)
	assert.IsType(t, BackToProjects{}, cmd())
}

func TestProjectListView_ReloadsOnRefresh(t *testing.T) {
	st := newGuestStore(t)
	v := NewProjectListView(context.Background(), st)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Empty(t, v.list.Items())
	assert.Contains(t, v.View(), "No Projects")

	p := newProject(t, st, "Acme", "acme.com")
	v.Update(Refresh{})
	require.Len(t, v.list.Items(), 1)

	_, cmd := v.Update(press("enter"))
	require.NotNil(t, cmd)
	sel, ok := cmd().(SelectedProject)
	require.True(t, ok)
	assert.Equal(t, p.ID, sel.Project.ID)
}

func TestProjectListView_DeleteConfirm(t *testing.T) {
	st := newGuestStore(t)
	newProject(t, st, "Acme", "acme.com")
	v := NewProjectListView(context.Background(), st)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	v.Update(press("d"))
	require.True(t, v.confirmingDelete)
	_, cmd := v.Update(press("y"))
	run(t, cmd)
	assert.Empty(t, st.Projects())
}
