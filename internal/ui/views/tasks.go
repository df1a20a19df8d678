package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/store"
	"github.com/tgienger/seotrack/internal/ui/keys"
	"github.com/tgienger/seotrack/internal/ui/render"
	"github.com/tgienger/seotrack/internal/ui/styles"
)

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusBackButton FocusArea = iota
	FocusSearchInput
	FocusCategoryDropdown
	FocusTaskList
	focusAreaCount
)

// edit form field order
const (
	editNotes = iota
	editProof
	editMinutes
	editSave
	editFieldCount
)

// TaskListView shows one project's tasks with its score
type TaskListView struct {
	ctx     context.Context
	store   *store.Store
	project models.Project
	tasks   []models.Task
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	// UI state
	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model
	category    models.Category // "" = all
	hideDone    bool

	// Category dropdown state
	categoryDropdownOpen bool
	categoryCursor       int

	// Task editing
	editing      bool
	editTaskID   string
	editNotes    textarea.Model
	editProof    textinput.Model
	editMinutes  textinput.Model
	editFocusIdx int
	editError    string

	// Task detail (read-only, rendered markdown)
	viewingTask bool
	detail      viewport.Model

	// History of the project's status changes
	viewingHistory bool
	historyScroll  int

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a task list for project
func NewTaskListView(ctx context.Context, st *store.Store, project models.Project) *TaskListView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	notes := textarea.New()
	notes.Placeholder = "Notes"
	notes.CharLimit = 5000
	notes.SetWidth(50)
	notes.SetHeight(5)
	notes.ShowLineNumbers = false

	proof := textinput.New()
	proof.Placeholder = "https://..."
	proof.CharLimit = 2000

	minutes := textinput.New()
	minutes.Placeholder = "0"
	minutes.CharLimit = 6

	v := &TaskListView{
		ctx:         ctx,
		store:       st,
		project:     project,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		focus:       FocusTaskList,
		searchInput: search,
		editNotes:   notes,
		editProof:   proof,
		editMinutes: minutes,
		detail:      viewport.New(76, 20),
	}
	v.reload()
	return v
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// ProjectID returns the project the view shows
func (v *TaskListView) ProjectID() string {
	return v.project.ID
}

// Busy reports whether the view is capturing text input
func (v *TaskListView) Busy() bool {
	return v.editing || v.focus == FocusSearchInput
}

func (v *TaskListView) filter() store.TaskFilter {
	return store.TaskFilter{
		Category: v.category,
		Query:    strings.TrimSpace(v.searchInput.Value()),
	}
}

// reload re-reads the project and its tasks, keeping the cursor on the same
// task where possible
func (v *TaskListView) reload() {
	if p, ok := v.store.Project(v.project.ID); ok {
		v.project = p
	}

	var selectedID string
	if v.cursor < len(v.tasks) {
		selectedID = v.tasks[v.cursor].ID
	}

	tasks := v.store.TasksOf(v.project.ID, v.filter())
	if v.hideDone {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.Status != models.StatusDone && t.Status != models.StatusSkipped {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}
	v.tasks = tasks

	v.cursor = min(v.cursor, max(0, len(v.tasks)-1))
	for i, t := range v.tasks {
		if t.ID == selectedID {
			v.cursor = i
			break
		}
	}
	v.ensureVisible()
	if v.viewingTask {
		v.refreshDetail()
	}
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.editNotes.SetWidth(clamp(contentWidth-10, 20, 60))
		v.detail.Width = contentWidth
		v.detail.Height = max(v.height-4, 5)
		if v.viewingTask {
			v.refreshDetail()
		}
		return v, nil

	case Refresh:
		if _, ok := v.store.Project(v.project.ID); !ok {
			// deleted elsewhere, or gone after a sign-in or sign-out
			return v, func() tea.Msg { return BackToProjects{} }
		}
		v.reload()
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		if v.viewingHistory {
			return v.updateViewingHistory(msg)
		}

		if v.categoryDropdownOpen {
			return v.updateCategoryDropdown(msg)
		}

		return v.updateNormal(msg)
	}

	if v.viewingTask {
		var cmd tea.Cmd
		v.detail, cmd = v.detail.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.cursor = 0
			v.reload()
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTaskList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTaskList && v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusBackButton:
			return v, func() tea.Msg { return BackToProjects{} }
		case FocusCategoryDropdown:
			v.openCategoryDropdown()
			return v, nil
		case FocusTaskList:
			if _, ok := v.selected(); ok {
				v.viewingTask = true
				v.refreshDetail()
				v.detail.GotoTop()
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selected(); ok && v.focus == FocusTaskList {
			v.startEditTask(t)
			return v, textarea.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.CycleStatus):
		if t, ok := v.selected(); ok && v.focus == FocusTaskList {
			return v, v.setStatus(t, t.Status.Next())
		}
		return v, nil

	case key.Matches(msg, v.keys.MarkDone):
		if t, ok := v.selected(); ok && v.focus == FocusTaskList {
			return v, v.setStatus(t, models.StatusDone)
		}
		return v, nil

	case key.Matches(msg, v.keys.MoreTime):
		if t, ok := v.selected(); ok {
			return v, v.setMinutes(t, t.MinutesSpent+keys.MinutesStep)
		}
		return v, nil

	case key.Matches(msg, v.keys.LessTime):
		if t, ok := v.selected(); ok && t.MinutesSpent > 0 {
			return v, v.setMinutes(t, max(t.MinutesSpent-keys.MinutesStep, 0))
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.focus = FocusCategoryDropdown
		v.openCategoryDropdown()
		return v, nil

	case key.Matches(msg, v.keys.History):
		v.viewingHistory = true
		v.historyScroll = 0
		return v, nil

	case key.Matches(msg, v.keys.HideDone):
		v.hideDone = !v.hideDone
		v.cursor = 0
		v.scrollY = 0
		v.reload()
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) setStatus(t models.Task, s models.Status) tea.Cmd {
	return func() tea.Msg {
		return OpResult{Op: "update status", Err: v.store.UpdateTask(v.ctx, t.ID, models.TaskUpdate{Status: &s})}
	}
}

func (v *TaskListView) setMinutes(t models.Task, m int) tea.Cmd {
	return func() tea.Msg {
		return OpResult{Op: "update time", Err: v.store.UpdateTask(v.ctx, t.ID, models.TaskUpdate{MinutesSpent: &m})}
	}
}

func (v *TaskListView) openCategoryDropdown() {
	v.categoryDropdownOpen = true
	v.categoryCursor = 0
	for i, c := range models.Categories() {
		if c == v.category {
			v.categoryCursor = i + 1
		}
	}
}

func (v *TaskListView) updateCategoryDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	categories := models.Categories()
	switch {
	case key.Matches(msg, v.keys.Back):
		v.categoryDropdownOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.categoryCursor > 0 {
			v.categoryCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.categoryCursor < len(categories) { // +1 for "All" option
			v.categoryCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.categoryCursor == 0 {
			v.category = ""
		} else {
			v.category = categories[v.categoryCursor-1]
		}
		v.categoryDropdownOpen = false
		v.focus = FocusTaskList
		v.cursor = 0
		v.scrollY = 0
		v.reload()
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := v.selected()
	if !ok {
		v.viewingTask = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.startEditTask(t)
		return v, textarea.Blink
	case key.Matches(msg, v.keys.CycleStatus):
		return v, v.setStatus(t, t.Status.Next())
	case key.Matches(msg, v.keys.MarkDone):
		return v, v.setStatus(t, models.StatusDone)
	case key.Matches(msg, v.keys.MoreTime):
		return v, v.setMinutes(t, t.MinutesSpent+keys.MinutesStep)
	case key.Matches(msg, v.keys.LessTime):
		return v, v.setMinutes(t, max(t.MinutesSpent-keys.MinutesStep, 0))
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}

	var cmd tea.Cmd
	v.detail, cmd = v.detail.Update(msg)
	return v, cmd
}

func (v *TaskListView) refreshDetail() {
	t, ok := v.selected()
	if !ok {
		return
	}
	v.detail.SetContent(render.Markdown(render.TaskMarkdown(t), max(v.detail.Width-4, 20)))
}

func (v *TaskListView) updateViewingHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.History):
		v.viewingHistory = false
	case key.Matches(msg, v.keys.Up):
		if v.historyScroll > 0 {
			v.historyScroll--
		}
	case key.Matches(msg, v.keys.Down):
		if v.historyScroll < len(v.store.HistoryOf(v.project.ID))-1 {
			v.historyScroll++
		}
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *TaskListView) startEditTask(t models.Task) {
	v.editing = true
	v.editTaskID = t.ID
	v.editError = ""
	v.editFocusIdx = editNotes
	v.editNotes.SetValue(t.Notes)
	v.editProof.SetValue(t.ProofURL)
	v.editMinutes.SetValue(strconv.Itoa(t.MinutesSpent))
	v.updateEditFocus()
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + editFieldCount - 1) % editFieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % editFieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter) && v.editFocusIdx != editNotes:
		if v.editFocusIdx == editSave {
			return v, v.saveTask()
		}
		v.editFocusIdx++
		v.updateEditFocus()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case editNotes:
		v.editNotes, cmd = v.editNotes.Update(msg)
	case editProof:
		v.editProof, cmd = v.editProof.Update(msg)
	case editMinutes:
		v.editMinutes, cmd = v.editMinutes.Update(msg)
	}
	return v, cmd
}

func (v *TaskListView) updateEditFocus() {
	v.editNotes.Blur()
	v.editProof.Blur()
	v.editMinutes.Blur()
	switch v.editFocusIdx {
	case editNotes:
		v.editNotes.Focus()
	case editProof:
		v.editProof.Focus()
	case editMinutes:
		v.editMinutes.Focus()
	}
}

// saveTask sends only the fields that differ from the stored task
func (v *TaskListView) saveTask() tea.Cmd {
	t, ok := v.store.Task(v.editTaskID)
	if !ok {
		v.editing = false
		return nil
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(v.editMinutes.Value()))
	if err != nil || minutes < 0 {
		v.editError = "Minutes must be a whole number, 0 or more"
		return nil
	}

	var u models.TaskUpdate
	if notes := v.editNotes.Value(); notes != t.Notes {
		u.Notes = &notes
	}
	if proof := strings.TrimSpace(v.editProof.Value()); proof != t.ProofURL {
		u.ProofURL = &proof
	}
	if minutes != t.MinutesSpent {
		u.MinutesSpent = &minutes
	}

	v.editing = false
	if u.Empty() {
		return nil
	}
	id := t.ID
	return func() tea.Msg {
		return OpResult{Op: "save task", Err: v.store.UpdateTask(v.ctx, id, u)}
	}
}

func (v *TaskListView) cycleFocus(dir int) {
	v.searchInput.Blur()
	v.focus = FocusArea((int(v.focus) + dir + int(focusAreaCount)) % int(focusAreaCount))
	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

// visibleItems is how many two-line task rows fit below the header
func (v *TaskListView) visibleItems() int {
	return max((v.height-14)/3, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.viewingTask {
		return v.renderTaskView()
	}

	if v.viewingHistory {
		return v.renderHistory()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	title := s.Title.Render(render.Truncate(v.project.Name, contentWidth/2)) +
		"  " + s.TitleMuted.Render(v.project.Domain)

	score := v.store.ScoreOf(v.project.ID)
	stats := v.store.StatsOf(v.project.ID)
	scoreLine := styles.ScoreBar(score, clamp(contentWidth-30, 10, 40)) +
		lipgloss.NewStyle().Foreground(styles.ScoreColor(score)).Bold(true).Render(fmt.Sprintf(" %d%%", score))
	statsLine := s.TitleMuted.Render(fmt.Sprintf("%d/%d done · %d in progress · %d skipped · %s",
		stats.Done, stats.Total, stats.InProgress, stats.Skipped, render.Minutes(stats.MinutesSpent)))

	// Search input - dynamic width
	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 26)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	categoryStyle := s.Button
	if v.focus == FocusCategoryDropdown {
		categoryStyle = s.ButtonFocused
	}
	categoryLabel := "All"
	if v.category != "" {
		categoryLabel = string(v.category)
	}
	if !isNarrow {
		categoryLabel = "Category: " + categoryLabel
	}
	if v.hideDone {
		categoryLabel += " (open)"
	}
	categoryBtn := categoryStyle.Render(categoryLabel + " ▼")

	var controls string
	if isNarrow {
		controls = lipgloss.JoinVertical(lipgloss.Left, searchBox, categoryBtn)
	} else {
		backStyle := s.Button
		if v.focus == FocusBackButton {
			backStyle = s.ButtonFocused
		}
		controls = lipgloss.JoinHorizontal(lipgloss.Center,
			backStyle.Render("← Projects"), "  ", searchBox, "  ", categoryBtn,
		)
	}

	dropdown := ""
	if v.categoryDropdownOpen {
		dropdown = "\n" + v.renderCategoryDropdown()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, scoreLine, statsLine, controls+dropdown)
}

func (v *TaskListView) renderCategoryDropdown() string {
	s := v.styles
	allStyle := s.ListItem
	if v.categoryCursor == 0 {
		allStyle = s.ListSelected
	}
	items := []string{allStyle.Render("All")}

	for i, c := range models.Categories() {
		itemStyle := s.ListItem
		if v.categoryCursor == i+1 {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(fmt.Sprintf("%s  %d%%", c, categoryScore(v.store.CategoryScoresOf(v.project.ID), c))))
	}
	return s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func categoryScore(scores []store.CategoryScore, c models.Category) int {
	for _, cs := range scores {
		if cs.Category == c {
			return cs.Score
		}
	}
	return 0
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		return s.TitleMuted.Render("No matching tasks.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.tasks))
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(t models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	glyph := lipgloss.NewStyle().Foreground(styles.StatusColor(t.Status)).Render(styles.StatusGlyph(t.Status))
	titleLine := glyph + " " + render.Truncate(t.Title, width-8)

	impact := lipgloss.NewStyle().Foreground(styles.ImpactColor(t.Impact)).Render(string(t.Impact))
	meta := fmt.Sprintf("%s · %s · %s", t.Category, render.Label(t.Status), t.Priority)
	if t.MinutesSpent > 0 {
		meta += " · " + render.Minutes(t.MinutesSpent)
	}
	if n := len(t.Attachments); n > 0 {
		meta += fmt.Sprintf(" · %d file", n)
		if n > 1 {
			meta += "s"
		}
	}
	metaLine := "  " + impact + " " + s.TitleMuted.Render(meta)

	itemStyle := s.ListItem.Width(width)
	if selected {
		itemStyle = s.ListSelected.Width(width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, itemStyle.Render(titleLine), itemStyle.Render(metaLine)) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	t, _ := v.store.Task(v.editTaskID)

	notesStyle, proofStyle, minutesStyle, btnStyle := s.Input, s.Input, s.Input, s.Button
	switch v.editFocusIdx {
	case editNotes:
		notesStyle = s.InputFocused
	case editProof:
		proofStyle = s.InputFocused
	case editMinutes:
		minutesStyle = s.InputFocused
	case editSave:
		btnStyle = s.ButtonFocused
	}

	rows := []string{
		s.Title.Render(render.Truncate(t.Title, inputWidth)),
		"",
		"Notes:",
		notesStyle.Render(v.editNotes.View()),
		"",
		"Proof URL:",
		proofStyle.Width(inputWidth).Render(v.editProof.View()),
		"",
		"Minutes spent:",
		minutesStyle.Width(12).Render(v.editMinutes.View()),
		"",
		btnStyle.Render(" Save "),
	}
	if v.editError != "" {
		rows = append(rows, "", s.ErrorText.Render(v.editError))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHistory() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	entries := v.store.HistoryOf(v.project.ID)

	rows := []string{s.Title.Render("History · " + v.project.Name), ""}
	if len(entries) == 0 {
		rows = append(rows, s.TitleMuted.Render("No status changes yet."))
	}
	visible := max(v.height-8, 1)
	end := min(v.historyScroll+visible, len(entries))
	for _, h := range entries[min(v.historyScroll, len(entries)):end] {
		when := s.TitleMuted.Render(h.ChangedAt.Local().Format(time.DateTime))
		change := lipgloss.NewStyle().Foreground(styles.StatusColor(h.NewStatus)).
			Render(render.Label(h.OldStatus) + " → " + render.Label(h.NewStatus))
		title := render.Truncate(h.TaskTitle, max(contentWidth-50, 12))
		rows = append(rows, fmt.Sprintf("%s  %s  %s  %s", when, change, title, s.TitleMuted.Render(h.Actor)))
		if h.Notes != "" {
			rows = append(rows, "    "+s.TitleMuted.Render(render.Truncate(h.Notes, contentWidth-6)))
		}
	}
	rows = append(rows, "", s.Help.Render(fmt.Sprintf("%s scroll • %s back",
		s.HelpKey.Render("↑↓"), s.HelpKey.Render("esc"))))

	padded := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(padded, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	hk := v.styles.HelpKey.Render
	return v.styles.Help.Render(
		fmt.Sprintf("%s view • %s status • %s done • %s/%s time • %s edit • %s search • %s category • %s history • %s back",
			hk("↵"), hk("s"), hk("x"), hk("+"), hk("-"), hk("e"), hk("/"), hk("f"), hk("h"), hk("esc"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	hideLabel := "hide done and skipped"
	if v.hideDone {
		hideLabel = "show all tasks"
	}

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("s") + "      next status",
		s.HelpKey.Render("x") + "      mark done",
		s.HelpKey.Render("+/-") + "    15 minutes more/less",
		s.HelpKey.Render("e") + "      edit notes, proof, time",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("f") + "      filter by category",
		s.HelpKey.Render("c") + "      " + hideLabel,
		s.HelpKey.Render("h") + "      history",
		s.HelpKey.Render("esc") + "    back",
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

func (v *TaskListView) renderTaskView() string {
	s := v.styles
	help := s.Help.Render(fmt.Sprintf("%s scroll • %s status • %s done • %s/%s time • %s edit • %s back",
		s.HelpKey.Render("↑↓"),
		s.HelpKey.Render("s"),
		s.HelpKey.Render("x"),
		s.HelpKey.Render("+"),
		s.HelpKey.Render("-"),
		s.HelpKey.Render("e"),
		s.HelpKey.Render("esc"),
	))
	return styles.CenterView(v.detail.View()+"\n"+help, v.width, v.height)
}
