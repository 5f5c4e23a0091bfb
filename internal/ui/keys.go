package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	CycleSize  key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Refresh    key.Binding
	Dismiss    key.Binding

	// Navigation
	Up   key.Binding
	Down key.Binding

	// Rules
	AddRule    key.Binding
	DeleteRule key.Binding
	ToggleRule key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding

	// Activity
	LoadMore key.Binding
	ClearLog key.Binding

	// Service
	ToggleService key.Binding
	ToggleStartup key.Binding
	Organize      key.Binding
	Reload        key.Binding
	Reset         key.Binding

	// Updates
	CheckNow      key.Binding
	ToggleUpdates key.Binding
	DismissUpdate key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		CycleSize: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "Cycle window size"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right"),
			key.WithHelp("tab", "Next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab", "Previous tab"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Dismiss message"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),

		AddRule: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add rule"),
		),
		DeleteRule: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete rule"),
		),
		ToggleRule: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Enable/disable rule"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "Move rule up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "Move rule down"),
		),

		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Load more"),
		),
		ClearLog: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Clear activity"),
		),

		ToggleService: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Start/stop service"),
		),
		ToggleStartup: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Launch at startup"),
		),
		Organize: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Organize now"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload config"),
		),
		Reset: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Reset to defaults"),
		),

		CheckNow: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Check now"),
		),
		ToggleUpdates: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Automatic checks"),
		),
		DismissUpdate: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss update"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Up, k.Down, k.Refresh, k.Dismiss},
		{k.AddRule, k.DeleteRule, k.ToggleRule, k.MoveUp, k.MoveDown},
		{k.LoadMore, k.ClearLog, k.ToggleService, k.ToggleStartup, k.Organize, k.Reload, k.Reset},
		{k.CheckNow, k.ToggleUpdates, k.DismissUpdate, k.CycleTheme, k.CycleSize, k.Help, k.Quit},
	}
}

// tabHelp returns the bindings relevant to one tab for the footer.
func (k keyMap) tabHelp(t Tab) []key.Binding {
	switch t {
	case TabRules:
		return []key.Binding{k.AddRule, k.ToggleRule, k.DeleteRule, k.MoveUp, k.MoveDown}
	case TabActivity:
		return []key.Binding{k.LoadMore, k.ClearLog}
	case TabService:
		return []key.Binding{k.ToggleService, k.ToggleStartup, k.Organize, k.Reload, k.Reset}
	case TabUpdates:
		return []key.Binding{k.CheckNow, k.ToggleUpdates, k.DismissUpdate}
	}
	return nil
}
