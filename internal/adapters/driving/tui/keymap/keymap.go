// Package keymap holds the key bindings of the pimsearch TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap groups the bindings by the part of the screen they act on.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Query input.
	Search     key.Binding
	ToggleKind key.Binding

	// Result list.
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	NewSearch key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:       bind("q", "quit", "q", "ctrl+c"),
		Help:       bind("?", "help", "?"),
		Back:       bind("esc", "back", "esc"),
		Search:     bind("enter", "search", "enter"),
		ToggleKind: bind("tab", "mail/calendar", "tab"),
		Up:         bind("↑/k", "up", "up", "k"),
		Down:       bind("↓/j", "down", "down", "j"),
		Open:       bind("enter", "open", "enter"),
		NewSearch:  bind("n", "new search", "n", "/"),
	}
}

// ShortHelp lists the bindings shown while typing a query.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.ToggleKind, k.Quit}
}

// ResultsHelp lists the bindings shown while browsing results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewSearch, k.Up, k.Open, k.ToggleKind, k.Help}
}

// FullHelp lists every binding in columns for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.Search, k.ToggleKind, k.NewSearch},
		{k.Back, k.Help, k.Quit},
	}
}
