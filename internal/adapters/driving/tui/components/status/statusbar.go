// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateError     State = "error"
	StateResults   State = "results"
)

// Bar displays search status, the mail indexer state and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	resultCount int
	progress    float64
	index       domain.IndexStateInfo
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		index:  domain.DefaultIndexState(),
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft() + "  " + s.renderIndex()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the search state.
func (s *Bar) renderLeft() string {
	switch s.state {
	case StateSearching:
		if s.progress > 0 {
			return s.styles.Progress.Render(fmt.Sprintf("Searching... %.0f%%", s.progress))
		}
		return s.styles.Muted.Render("Searching...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateReady, StateResults:
		if s.message != "" {
			return s.styles.Normal.Render(s.message)
		}
		if s.resultCount > 0 {
			return s.styles.Normal.Render(fmt.Sprintf("%d results", s.resultCount))
		}
	}
	return s.styles.Muted.Render("Ready")
}

// renderIndex summarises the mail indexer state.
func (s *Bar) renderIndex() string {
	return s.styles.Muted.Render("| ") + IndexSummary(s.styles, s.index)
}

// IndexSummary renders a one-line description of the mail indexer state.
func IndexSummary(st *styles.Styles, state domain.IndexStateInfo) string {
	switch {
	case state.Initializing:
		return st.Muted.Render("mail index starting")
	case !state.MailIndexEnabled:
		return st.Warning.Render("mail index off")
	case state.Progress > 0:
		return st.Progress.Render(fmt.Sprintf("indexing %.0f%%", state.Progress))
	case state.FailedIndexingUpTo != nil:
		return st.Error.Render(fmt.Sprintf("indexing failed, %d mails indexed", state.IndexedMailCount))
	default:
		return st.Muted.Render(fmt.Sprintf("%d mails indexed", state.IndexedMailCount))
	}
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
	if state != StateSearching {
		s.progress = 0
	}
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetResultCount sets the result count.
func (s *Bar) SetResultCount(count int) {
	s.resultCount = count
}

// ResultCount returns the current result count.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// SetProgress sets the progress of the running search in percent.
func (s *Bar) SetProgress(percent float64) {
	s.progress = percent
}

// SetIndexState sets the mail indexer state shown in the bar.
func (s *Bar) SetIndexState(state domain.IndexStateInfo) {
	s.index = state
}

// IndexState returns the mail indexer state shown in the bar.
func (s *Bar) IndexState() domain.IndexStateInfo {
	return s.index
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the search part of the status bar.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
	s.progress = 0
}
