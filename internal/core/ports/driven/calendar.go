package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/observable"
)

// CalendarEventProvider serves calendar events grouped by day.
type CalendarEventProvider interface {
	// LoadMonthsIfNeeded makes sure every month starting at the given dates is loaded.
	// Months already loaded are skipped. The monitor receives one unit of work per month.
	LoadMonthsIfNeeded(ctx context.Context, months []time.Time, monitor ProgressMonitor) error

	// EventsForMonths exposes the loaded events, ordered by day.
	EventsForMonths() *observable.Value[domain.DaysToEvents]
}

// EventStore persists calendar events.
type EventStore interface {
	// SaveEvents inserts or replaces events.
	SaveEvents(ctx context.Context, events []domain.CalendarEvent) error

	// GetEvent retrieves one event. Returns domain.ErrNotFound if missing.
	GetEvent(ctx context.Context, id domain.IdTuple) (*domain.CalendarEvent, error)

	// DeleteEvent removes an event.
	DeleteEvent(ctx context.Context, id domain.IdTuple) error

	// ListEvents returns events that may occur within [from, to): single events
	// overlapping the range and repeating events starting before to.
	ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error)

	// CountEvents returns the number of stored events.
	CountEvents(ctx context.Context) (int, error)
}

// EventSource fetches events from a remote calendar.
type EventSource interface {
	// Name identifies the source in logs and status output.
	Name() string

	// FetchEvents returns events overlapping [from, to).
	FetchEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error)
}
