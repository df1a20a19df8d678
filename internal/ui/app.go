package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tgienger/seotrack/internal/bus"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
	"github.com/tgienger/seotrack/internal/ui/styles"
	"github.com/tgienger/seotrack/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewTasks
)

// Options configures the App
type Options struct {
	// Identity delivers sign-in and sign-out; nil when the identity is fixed
	Identity <-chan string
	Log      zerolog.Logger
}

// storeEventMsg wraps a store bus event
type storeEventMsg struct{ bus.Event }

// identityMsg carries a new user ID ("" for signed out)
type identityMsg string

// identityAppliedMsg is sent once the store has followed an identity change
type identityAppliedMsg struct{}

type App struct {
	ctx         context.Context
	store       *store.Store
	sub         *bus.Subscription
	identity    <-chan string
	log         zerolog.Logger
	styles      *styles.Styles
	currentView View
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	lastErr     string
	width       int
	height      int
}

// Creates a new application
func NewApp(ctx context.Context, st *store.Store, opts Options) *App {
	return &App{
		ctx:         ctx,
		store:       st,
		sub:         st.Subscribe("store."),
		identity:    opts.Identity,
		log:         opts.Log.With().Str("component", "tui").Logger(),
		styles:      styles.NewStyles(),
		currentView: ViewProjects,
		projectList: views.NewProjectListView(ctx, st),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.projectList.Init(), a.waitStore(), a.waitIdentity())
}

func (a *App) waitStore() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-a.sub.Ch():
			if !ok {
				return nil
			}
			return storeEventMsg{ev}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) waitIdentity() tea.Cmd {
	if a.identity == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case id, ok := <-a.identity:
			if !ok {
				return nil
			}
			return identityMsg(id)
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) openProject(project models.Project) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.ctx, a.store, project)

	// Initialize task list with window size
	return tea.Batch(
		a.taskList.Init(),
		a.resize(),
	)
}

// resize replays the window size minus the status bar to the active view
func (a *App) resize() tea.Cmd {
	w, h := a.width, max(a.height-1, 0)
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-1, 0)}
		// Always update project list size since it persists
		a.projectList.Update(inner)
		if a.taskList != nil {
			a.taskList.Update(inner)
		}
		return a, nil

	case storeEventMsg:
		a.log.Debug().Str("topic", msg.Topic).Interface("payload", msg.Payload).Msg("store event")
		var cmds []tea.Cmd
		_, cmd := a.projectList.Update(views.Refresh{})
		cmds = append(cmds, cmd)
		if a.currentView == ViewTasks && a.taskList != nil {
			_, cmd = a.taskList.Update(views.Refresh{})
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, a.waitStore())
		return a, tea.Batch(cmds...)

	case identityMsg:
		id := string(msg)
		a.log.Info().Str("user", id).Msg("identity changed")
		return a, tea.Batch(
			func() tea.Msg {
				a.store.SetIdentity(a.ctx, id)
				return identityAppliedMsg{}
			},
			a.waitIdentity(),
		)

	case identityAppliedMsg:
		return a, nil

	case views.OpResult:
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Str("op", msg.Op).Msg("operation failed")
			a.lastErr = msg.Op + ": " + msg.Err.Error()
		} else {
			a.lastErr = ""
		}
		return a, nil

	case tea.KeyMsg:
		a.lastErr = ""

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.currentView = ViewProjects
		a.taskList = nil
		_, cmd := a.projectList.Update(views.Refresh{})
		return a, tea.Batch(
			cmd,
			a.projectList.Init(),
			a.resize(),
		)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	body := a.projectList.View()
	if a.currentView == ViewTasks && a.taskList != nil {
		body = a.taskList.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, a.statusBar())
}

func (a *App) statusBar() string {
	s := a.styles
	st := a.store.State()

	var badge string
	switch {
	case a.store.Loading():
		badge = s.ModeCloud.Render(" loading ")
	case st.Mode == store.ModeCloud:
		badge = s.ModeCloud.Render(" " + st.UserID + " ")
	default:
		badge = s.ModeGuest.Render(" guest ")
	}

	bar := badge
	if a.lastErr != "" {
		bar += " " + s.ErrorText.Render(a.lastErr)
	}
	return s.StatusBar.Width(a.width).Render(bar)
}
