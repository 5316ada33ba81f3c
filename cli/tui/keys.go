package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings shared by every TUI view.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
