// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// ResultItem is one search hit resolved for display.
type ResultItem struct {
	ID    domain.IdTuple
	Kind  domain.EntityKind
	Title string

	// Detail is the sender for mail and the location for events.
	Detail string
	When   time.Time
}

// SearchCompleted carries a finished search back to the model.
type SearchCompleted struct {
	Query string
	Kind  domain.EntityKind
	Items []ResultItem

	// HasMore is true when the index holds hits beyond the result cap.
	HasMore bool

	// Unavailable is true when mail search returned no result because indexing is disabled.
	Unavailable bool
	Err         error
}

// IndexStateChanged carries a new mail indexer state.
type IndexStateChanged struct {
	State domain.IndexStateInfo
}

// ProgressChanged carries the aggregate progress of running searches in percent.
type ProgressChanged struct {
	Percent float64
}

// ResultOpened is sent when a search result is opened.
type ResultOpened struct {
	Item ResultItem
}

// EntityLoaded carries the mail or event behind an opened result.
type EntityLoaded struct {
	ID    domain.IdTuple
	Mail  *domain.Mail
	Event *domain.CalendarEvent
	Err   error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the search input and results view.
	ViewSearch ViewType = iota
	// ViewDetail shows a single mail or event.
	ViewDetail
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewDetail:
		return "detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
