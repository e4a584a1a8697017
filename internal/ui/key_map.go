package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the watch view.
type keyMap struct {
	stop key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		stop: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop task")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.stop, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.stop, k.quit}}
}
