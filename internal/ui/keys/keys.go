// Package keys defines the key bindings shared by every view.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the application key bindings
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Back   key.Binding
	Quit   key.Binding
	Tab    key.Binding
	Help   key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Search key.Binding
	Filter key.Binding

	// task actions
	CycleStatus key.Binding
	MarkDone    key.Binding
	MoreTime    key.Binding
	LessTime    key.Binding
	History     key.Binding
	HideDone    key.Binding
}

// MinutesStep is how much MoreTime and LessTime change the time spent
const MinutesStep = 15

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "category"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s", " "),
			key.WithHelp("s", "status"),
		),
		MarkDone: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "done"),
		),
		MoreTime: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "15 min"),
		),
		LessTime: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "15 min"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		HideDone: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "hide done"),
		),
	}
}
