package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// Ensure EventStore implements the interface.
var _ driven.EventStore = (*EventStore)(nil)

// EventStore is an in-memory implementation of driven.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]domain.CalendarEvent
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make(map[string]domain.CalendarEvent),
	}
}

// SaveEvents stores or replaces events.
func (s *EventStore) SaveEvents(_ context.Context, events []domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		s.events[e.ID.Key()] = e
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *EventStore) GetEvent(_ context.Context, id domain.IdTuple) (*domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// DeleteEvent removes an event. Deleting a missing event is not an error.
func (s *EventStore) DeleteEvent(_ context.Context, id domain.IdTuple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id.Key())
	return nil
}

// ListEvents returns the events that may occur within [from, to), ordered by start time.
func (s *EventStore) ListEvents(_ context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.CalendarEvent
	for _, e := range s.events {
		if e.MayOccurWithin(from, to) {
			result = append(result, e)
		}
	}

	slices.SortFunc(result, func(a, b domain.CalendarEvent) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID.Key(), b.ID.Key())
	})
	return result, nil
}

// CountEvents returns the number of stored events.
func (s *EventStore) CountEvents(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}
