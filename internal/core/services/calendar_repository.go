package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Ensure CalendarEventsRepository implements the interface.
var _ driven.CalendarEventProvider = (*CalendarEventsRepository)(nil)

// maxOccurrences bounds the expansion of a single series within one month.
const maxOccurrences = 1000

// CalendarEventsRepository caches calendar events month by month and serves
// them grouped by day.
type CalendarEventsRepository struct {
	store driven.EventStore

	// loadMu serialises month loading.
	loadMu sync.Mutex

	mu       sync.Mutex
	source   driven.EventSource
	location *time.Location
	loaded   map[int64]bool
	days   map[int64][]domain.CalendarEvent

	events *observable.Value[domain.DaysToEvents]
}

// NewCalendarEventsRepository creates a repository reading from store.
func NewCalendarEventsRepository(store driven.EventStore) *CalendarEventsRepository {
	return &CalendarEventsRepository{
		store:    store,
		location: time.Local,
		loaded:   make(map[int64]bool),
		days:     make(map[int64][]domain.CalendarEvent),
		events:   observable.New(domain.DaysToEvents{}),
	}
}

// SetSource configures a remote source pulled before a month is read from the store.
func (r *CalendarEventsRepository) SetSource(source driven.EventSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = source
}

// SetLocation sets the time zone days and months are computed in.
func (r *CalendarEventsRepository) SetLocation(loc *time.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = loc
}

func (r *CalendarEventsRepository) config() (driven.EventSource, *time.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source, r.location
}

// EventsForMonths exposes the loaded events ordered by day.
func (r *CalendarEventsRepository) EventsForMonths() *observable.Value[domain.DaysToEvents] {
	return r.events
}

// LoadMonthsIfNeeded loads every month not yet cached.
func (r *CalendarEventsRepository) LoadMonthsIfNeeded(
	ctx context.Context, months []time.Time, monitor driven.ProgressMonitor,
) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	defer r.publish()

	source, loc := r.config()
	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := domain.StartOfMonth(month.In(loc))
		if r.isLoaded(start) {
			monitor.WorkDone(1)
			continue
		}

		logger.Debug("Loading calendar month %s", start.Format("2006-01"))
		if err := r.loadMonth(ctx, start, source, loc); err != nil {
			return err
		}
		monitor.WorkDone(1)
	}
	return nil
}

// Invalidate drops the cached months containing the given times.
// They are reloaded on the next request.
func (r *CalendarEventsRepository) Invalidate(months ...time.Time) {
	r.mu.Lock()
	for _, m := range months {
		start := domain.StartOfMonth(m.In(r.location))
		delete(r.loaded, start.UnixMilli())
		end := start.AddDate(0, 1, 0).UnixMilli()
		for day := range r.days {
			if day >= start.UnixMilli() && day < end {
				delete(r.days, day)
			}
		}
	}
	r.mu.Unlock()
	r.publish()
}

// InvalidateAll drops every cached month.
func (r *CalendarEventsRepository) InvalidateAll() {
	r.mu.Lock()
	clear(r.loaded)
	clear(r.days)
	r.mu.Unlock()
	r.publish()
}

func (r *CalendarEventsRepository) isLoaded(month time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded[month.UnixMilli()]
}

func (r *CalendarEventsRepository) loadMonth(
	ctx context.Context, start time.Time, source driven.EventSource, loc *time.Location,
) error {
	end := start.AddDate(0, 1, 0)

	if source != nil {
		fetched, err := source.FetchEvents(ctx, start, end)
		if err != nil {
			return fmt.Errorf("fetch %s events: %w", source.Name(), err)
		}
		if len(fetched) > 0 {
			if err := r.store.SaveEvents(ctx, fetched); err != nil {
				return fmt.Errorf("save fetched events: %w", err)
			}
		}
		logger.Debug("Fetched %d events from %s", len(fetched), source.Name())
	}

	stored, err := r.store.ListEvents(ctx, start, end)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	days := make(map[int64][]domain.CalendarEvent)
	for i := range stored {
		for _, occurrence := range expandEvent(&stored[i], start, end) {
			placeOnDays(days, occurrence, start, end, loc)
		}
	}

	r.mu.Lock()
	for day, events := range days {
		slices.SortStableFunc(events, func(a, b domain.CalendarEvent) int {
			return a.StartTime.Compare(b.StartTime)
		})
		r.days[day] = events
	}
	r.loaded[start.UnixMilli()] = true
	r.mu.Unlock()

	logger.Debug("Month %s: %d events on %d days", start.Format("2006-01"), len(stored), len(days))
	return nil
}

func (r *CalendarEventsRepository) publish() {
	r.mu.Lock()
	keys := slices.Sorted(maps.Keys(r.days))
	result := make(domain.DaysToEvents, 0, len(keys))
	for _, day := range keys {
		result = append(result, domain.DayEvents{DayStart: day, Events: r.days[day]})
	}
	r.mu.Unlock()

	r.events.Set(result)
}

// expandEvent returns the occurrences of event that overlap [from, to).
// Occurrences keep the event's id.
func expandEvent(event *domain.CalendarEvent, from, to time.Time) []domain.CalendarEvent {
	duration := event.EndTime.Sub(event.StartTime)
	if duration < 0 {
		duration = 0
	}

	overlaps := func(start time.Time) bool {
		end := start.Add(duration)
		if duration == 0 {
			return !start.Before(from) && start.Before(to)
		}
		return end.After(from) && start.Before(to)
	}

	rule := event.RepeatRule
	if rule == nil || !rule.Frequency.IsValid() {
		if overlaps(event.StartTime) {
			return []domain.CalendarEvent{*event}
		}
		return nil
	}

	interval := max(rule.Interval, 1)
	var occurrences []domain.CalendarEvent
	for n := firstCandidate(event.StartTime, rule.Frequency, interval, from, duration); ; n++ {
		start, ok := nthOccurrence(event.StartTime, rule.Frequency, interval, n)
		if !ok {
			continue
		}
		if !start.Before(to) {
			break
		}
		if rule.EndTime != nil && start.After(*rule.EndTime) {
			break
		}
		if !overlaps(start) {
			continue
		}

		occurrence := *event
		occurrence.StartTime = start
		occurrence.EndTime = start.Add(duration)
		occurrences = append(occurrences, occurrence)
		if len(occurrences) >= maxOccurrences {
			logger.Warn("Event %s has more than %d occurrences in one month", event.ID, maxOccurrences)
			break
		}
	}
	return occurrences
}

// firstCandidate skips fixed-length periods that end before from.
func firstCandidate(start time.Time, freq domain.RepeatFrequency, interval int, from time.Time, duration time.Duration) int {
	var period time.Duration
	switch freq {
	case domain.RepeatDaily:
		period = 24 * time.Hour * time.Duration(interval)
	case domain.RepeatWeekly:
		period = 7 * 24 * time.Hour * time.Duration(interval)
	default:
		return 0
	}

	gap := from.Sub(start) - duration
	if gap <= 0 {
		return 0
	}
	// One period of slack covers daylight saving shifts.
	return max(int(gap/period)-1, 0)
}

// nthOccurrence returns the n-th instance of a series starting at start.
// Monthly and yearly instances keep the day of month; months without that
// day have no instance and report false.
func nthOccurrence(start time.Time, freq domain.RepeatFrequency, interval, n int) (time.Time, bool) {
	steps := n * interval
	switch freq {
	case domain.RepeatDaily:
		return start.AddDate(0, 0, steps), true
	case domain.RepeatWeekly:
		return start.AddDate(0, 0, 7*steps), true
	case domain.RepeatMonthly:
		return sameDayOfMonth(start, 0, steps)
	case domain.RepeatYearly:
		return sameDayOfMonth(start, steps, 0)
	default:
		return start, true
	}
}

func sameDayOfMonth(start time.Time, years, months int) (time.Time, bool) {
	year, month, day := start.Date()
	first := time.Date(year+years, month+time.Month(months), 1,
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
	occurrence := first.AddDate(0, 0, day-1)
	if occurrence.Month() != first.Month() {
		return time.Time{}, false
	}
	return occurrence, true
}

// placeOnDays adds event to every day in [from, to) it covers.
// An event always covers the day it starts on.
func placeOnDays(days map[int64][]domain.CalendarEvent, event domain.CalendarEvent, from, to time.Time, loc *time.Location) {
	day := domain.StartOfDay(event.StartTime.In(loc))
	end := event.EndTime.In(loc)
	for {
		if !day.Before(from) && day.Before(to) {
			key := day.UnixMilli()
			days[key] = append(days[key], event)
		}
		day = day.AddDate(0, 0, 1)
		if !day.Before(end) || !day.Before(to) {
			break
		}
	}
}
