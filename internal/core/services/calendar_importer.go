package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Ensure CalendarImporter implements the interface.
var _ driving.CalendarImporter = (*CalendarImporter)(nil)

// monthCache is the part of CalendarEventsRepository the importer needs.
type monthCache interface {
	Invalidate(months ...time.Time)
	InvalidateAll()
}

// CalendarImporter writes imported and synced events to the event store and
// drops the cached months they touch.
type CalendarImporter struct {
	store      driven.EventStore
	normaliser driven.EventNormaliser
	source     driven.EventSource
	cache      monthCache
}

// NewCalendarImporter creates an importer. source and cache may be nil.
func NewCalendarImporter(
	store driven.EventStore,
	normaliser driven.EventNormaliser,
	source driven.EventSource,
	cache monthCache,
) *CalendarImporter {
	return &CalendarImporter{
		store:      store,
		normaliser: normaliser,
		source:     source,
		cache:      cache,
	}
}

// ImportFile parses an .ics file into calendar listID.
func (c *CalendarImporter) ImportFile(ctx context.Context, path, listID string) (int, error) {
	if listID == "" {
		listID = domain.DefaultCalendarListID
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	events, err := c.normaliser.Normalise(ctx, content, filepath.ToSlash(path), listID)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := c.store.SaveEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("save events: %w", err)
	}
	c.invalidate(events)

	logger.Info("Imported %d events from %s into %q", len(events), path, listID)
	return len(events), nil
}

// SyncRange pulls [from, to) from the remote source.
func (c *CalendarImporter) SyncRange(ctx context.Context, from, to time.Time) (int, error) {
	if c.source == nil {
		return 0, fmt.Errorf("no calendar source configured: %w", domain.ErrAuthRequired)
	}

	events, err := c.source.FetchEvents(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetch %s events: %w", c.source.Name(), err)
	}
	if len(events) > 0 {
		if err := c.store.SaveEvents(ctx, events); err != nil {
			return 0, fmt.Errorf("save events: %w", err)
		}
	}

	if c.cache != nil {
		c.cache.Invalidate(monthsInRange(from, to.Add(-time.Millisecond))...)
	}

	logger.Info("Synced %d events from %s", len(events), c.source.Name())
	return len(events), nil
}

// invalidate drops every cached month an event may appear in.
// A series can reach any later month, so it drops the whole cache.
func (c *CalendarImporter) invalidate(events []domain.CalendarEvent) {
	if c.cache == nil {
		return
	}

	var months []time.Time
	for i := range events {
		e := &events[i]
		if e.RepeatRule != nil {
			c.cache.InvalidateAll()
			return
		}
		end := e.EndTime
		if end.Before(e.StartTime) {
			end = e.StartTime
		}
		months = append(months, monthsInRange(e.StartTime, end)...)
	}
	c.cache.Invalidate(months...)
}
