package calendar

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/normalisers/ics"
)

// eventToDomain converts a Google Calendar event. Series masters keep their
// RRULE so that the repository expands them like imported series.
func eventToDomain(event *calendar.Event, listID string) (*domain.CalendarEvent, error) {
	start, allDay, err := parseEventTime(event.Start)
	if err != nil {
		return nil, fmt.Errorf("event %s start: %w", event.Id, err)
	}
	end, _, err := parseEventTime(event.End)
	if err != nil {
		end = start
	}

	out := &domain.CalendarEvent{
		ID:          domain.IdTuple{ListID: listID, ElementID: event.Id},
		UID:         event.ICalUID,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		StartTime:   start,
		EndTime:     end,
		AllDay:      allDay,
	}

	for _, line := range event.Recurrence {
		if !strings.HasPrefix(line, "RRULE:") {
			continue
		}
		rule, err := ics.ParseRRule(line, start)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", event.Id, err)
		}
		out.RepeatRule = rule
		break
	}
	return out, nil
}

// parseEventTime reads a timed or all-day EventDateTime in its own zone.
func parseEventTime(dt *calendar.EventDateTime) (time.Time, bool, error) {
	if dt == nil {
		return time.Time{}, false, fmt.Errorf("%w: missing time", domain.ErrInvalidInput)
	}

	loc := time.Local
	if dt.TimeZone != "" {
		if l, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = l
		}
	}

	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return t.In(loc), false, nil
	}

	t, err := time.ParseInLocation(time.DateOnly, dt.Date, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return t, true, nil
}

// shouldImport skips cancelled events and modified instances of a series,
// which the series master already covers.
func shouldImport(event *calendar.Event) bool {
	return event != nil && event.Id != "" && event.Status != "cancelled" && event.RecurringEventId == ""
}
