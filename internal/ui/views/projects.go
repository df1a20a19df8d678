package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
	"github.com/tgienger/seotrack/internal/ui/keys"
	"github.com/tgienger/seotrack/internal/ui/render"
	"github.com/tgienger/seotrack/internal/ui/styles"
)

type projectItem struct {
	project models.Project
	score   int
	stats   store.Stats
}

func (i projectItem) Title() string { return i.project.Name }
func (i projectItem) Description() string {
	parts := []string{i.project.Domain}
	if i.project.ClientName != "" {
		parts = append(parts, i.project.ClientName)
	}
	return strings.Join(parts, " · ")
}
func (i projectItem) FilterValue() string {
	return i.project.Name + " " + i.project.Domain + " " + i.project.ClientName
}

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                           { return 2 }
func (d projectDelegate) Spacing() int                          { return 1 }
func (d projectDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	score := fmt.Sprintf("%3d%%", p.score)
	nameWidth := max(width-4-len(score)-1, 8)
	title := render.Truncate(p.Title(), nameWidth)
	gap := strings.Repeat(" ", max(nameWidth-lipgloss.Width(title), 0)+1)
	titleLine := title + gap + lipgloss.NewStyle().Foreground(styles.ScoreColor(p.score)).Render(score)

	desc := render.Truncate(fmt.Sprintf("%s  %d/%d done", p.Description(), p.stats.Done, p.stats.Total), width-4)

	_, _ = fmt.Fprintf(w, "%s\n%s", titleStyle.Render(titleLine), descStyle.Render(desc))
}

// form field order of the new project form
const (
	fieldName = iota
	fieldDomain
	fieldClient
	fieldIndustry
	fieldStart
	fieldCount
)

// ProjectListView lists projects and creates or deletes them
type ProjectListView struct {
	ctx      context.Context
	store    *store.Store
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int

	creating  bool
	inputs    []textinput.Model
	focusIdx  int // fieldCount means the create button
	formError string

	confirmingDelete bool
	deleteTarget     models.Project

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewProjectListView returns the project list bound to st
func NewProjectListView(ctx context.Context, st *store.Store) *ProjectListView {
	s := styles.NewStyles()

	placeholders := [fieldCount]string{
		fieldName:     "Project name",
		fieldDomain:   "example.com",
		fieldClient:   "Client (optional)",
		fieldIndustry: "Industry (optional)",
		fieldStart:    "Start date YYYY-MM-DD (default today)",
	}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 200
		inputs[i] = in
	}
	inputs[fieldStart].CharLimit = 10

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	v := &ProjectListView{
		ctx:      ctx,
		store:    st,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		inputs:   inputs,
	}
	v.reload()
	return v
}

func (v *ProjectListView) Init() tea.Cmd {
	return nil
}

// reload rebuilds the list from the store's current snapshot
func (v *ProjectListView) reload() {
	projects := v.store.Projects()
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p, score: v.store.ScoreOf(p.ID), stats: v.store.StatsOf(p.ID)}
	}
	v.list.SetItems(items)
}

// SelectedProject opens a project's task list
type SelectedProject struct {
	Project models.Project
}

type projectCreatedMsg struct {
	id  string
	err error
}

// Busy reports whether the view is capturing text input
func (v *ProjectListView) Busy() bool {
	return v.creating || v.list.FilterState() == list.Filtering
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case Refresh:
		v.reload()
		return v, nil

	case projectCreatedMsg:
		if msg.err != nil {
			v.formError = msg.err.Error()
			return v, nil
		}
		v.creating = false
		v.reload()
		if p, ok := v.store.Project(msg.id); ok {
			return v, func() tea.Msg { return SelectedProject{Project: p} }
		}
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.creating {
			return v.updateCreating(msg)
		}

		// typing into the list filter
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			if v.list.FilterState() == list.FilterApplied {
				v.list.ResetFilter()
			}
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.startCreate()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, func() tea.Msg {
					return SelectedProject{Project: item.project}
				}
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.confirmingDelete = true
				v.deleteTarget = item.project
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		target := v.deleteTarget
		return v, func() tea.Msg {
			return OpResult{Op: "delete project", Err: v.store.DeleteProject(v.ctx, target.ID)}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) startCreate() {
	v.creating = true
	v.formError = ""
	v.focusIdx = fieldName
	for i := range v.inputs {
		v.inputs[i].Reset()
	}
	v.updateFocus()
}

func (v *ProjectListView) fields() models.ProjectFields {
	val := func(i int) string { return strings.TrimSpace(v.inputs[i].Value()) }
	return models.ProjectFields{
		Name:       val(fieldName),
		Domain:     val(fieldDomain),
		ClientName: val(fieldClient),
		Industry:   val(fieldIndustry),
		StartDate:  val(fieldStart),
	}
}

func (v *ProjectListView) submit() tea.Cmd {
	f := v.fields()
	if f.Name == "" || f.Domain == "" {
		v.formError = "Name and domain are required"
		return nil
	}
	v.formError = ""
	return func() tea.Msg {
		id, err := v.store.CreateProject(v.ctx, f)
		return projectCreatedMsg{id: id, err: err}
	}
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.submit()

	case msg.String() == "shift+tab" || msg.String() == "up":
		v.focusIdx = (v.focusIdx + fieldCount) % (fieldCount + 1)
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab) || msg.String() == "down":
		v.focusIdx = (v.focusIdx + 1) % (fieldCount + 1)
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < fieldCount {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.submit()
	}

	if v.focusIdx >= fieldCount {
		return v, nil
	}
	var cmd tea.Cmd
	v.inputs[v.focusIdx], cmd = v.inputs[v.focusIdx].Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateFocus() {
	for i := range v.inputs {
		if i == v.focusIdx {
			v.inputs[i].Focus()
		} else {
			v.inputs[i].Blur()
		}
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	labels := [fieldCount]string{
		fieldName:     "Name:",
		fieldDomain:   "Domain:",
		fieldClient:   "Client:",
		fieldIndustry: "Industry:",
		fieldStart:    "Start date:",
	}
	rows := []string{s.Title.Render("New Project"), ""}
	for i, in := range v.inputs {
		style := s.Input
		if i == v.focusIdx {
			style = s.InputFocused
		}
		rows = append(rows, labels[i], style.Width(inputWidth).Render(in.View()))
	}

	btnStyle := s.Button
	if v.focusIdx == fieldCount {
		btnStyle = s.ButtonFocused
	}
	rows = append(rows, "", btnStyle.Render(" Create "))
	if v.formError != "" {
		rows = append(rows, "", s.ErrorText.Render(render.Truncate(v.formError, inputWidth)))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • Ctrl+S: create • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s del • %s filter • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("/") + "      filter",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(render.Truncate(fmt.Sprintf("%s (%s)", v.deleteTarget.Name, v.deleteTarget.Domain), contentWidth-4)),
		s.TitleMuted.Render("All tasks and their history go with it."),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
