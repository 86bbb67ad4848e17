package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Corrections
	Active       key.Binding
	Passive      key.Binding
	Ignore       key.Binding
	Unclassified key.Binding
	Reset        key.Binding

	// View modes
	ToggleFilter key.Binding
	ToggleHelp   key.Binding

	// Application
	Save key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("PgUp/Ctrl+B", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("PgDn/Ctrl+F", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "go to start"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "go to end"),
		),

		Active: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "active"),
		),
		Passive: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "passive"),
		),
		Ignore: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "ignore"),
		),
		Unclassified: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unclassified"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "undo correction"),
		),

		ToggleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "unclassified only"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),

		Save: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s/Enter", "save and learn"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/Esc", "quit without saving"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Active, k.Passive, k.Ignore, k.Unclassified, k.Save, k.Quit, k.ToggleHelp}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Active, k.Passive, k.Ignore, k.Unclassified, k.Reset},
		{k.ToggleFilter, k.ToggleHelp, k.Save, k.Quit},
	}
}
