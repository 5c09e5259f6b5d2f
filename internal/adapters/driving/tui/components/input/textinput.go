// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// SearchInput wraps a bubbles textinput and labels it with the searched kind.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	kind      domain.EntityKind
	width     int
}

// NewSearchInput creates a new search input component for mail.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	ti.Focus()

	in := &SearchInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
	in.SetKind(domain.KindMail)
	return in
}

// Init initialises the search input.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the search input.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render(s.label())
	input := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, input)
}

func (s *SearchInput) label() string {
	if s.kind == domain.KindCalendarEvent {
		return "Calendar: "
	}
	return "Mail: "
}

// SetKind changes the label and placeholder to match kind.
func (s *SearchInput) SetKind(kind domain.EntityKind) {
	s.kind = kind
	if kind == domain.KindCalendarEvent {
		s.textinput.Placeholder = "Search event titles and descriptions..."
	} else {
		s.textinput.Placeholder = "Search subject, body, sender, recipients..."
	}
}

// Kind returns the searched kind.
func (s *SearchInput) Kind() domain.EntityKind {
	return s.kind
}

// Value returns the current input value.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	// label and border
	s.textinput.Width = max(width-14, 20)
}

// Width returns the current width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the input.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
}
