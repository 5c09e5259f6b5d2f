package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// QueryOptions are the user-facing knobs of a search before defaults apply.
type QueryOptions struct {
	Type domain.EntityKind

	// From and To are the first and last day searched. Zero values fall back to
	// the calendar window for calendar searches and to no bound for mail.
	From time.Time
	To   time.Time

	ListIDs     []string
	Field       string
	EventSeries *bool

	// MaxResults overrides the configured cap when above 0. Negative means unbounded.
	MaxResults int
}

// BuildQuery turns user input into a search query, filling in defaults from settings.
func BuildQuery(
	text string, opts QueryOptions, settings domain.SearchSettings, now time.Time,
) (domain.SearchQuery, error) {
	kind := opts.Type
	if kind == domain.KindUnknown {
		kind = domain.KindMail
	}

	if opts.Field != "" && kind == domain.KindMail && !slices.Contains(domain.MailFields, opts.Field) {
		return domain.SearchQuery{}, fmt.Errorf("%w: unknown mail field %q", domain.ErrInvalidInput, opts.Field)
	}

	from, to := opts.From, opts.To
	if kind == domain.KindCalendarEvent {
		windowStart, windowEnd := settings.CalendarWindow(now)
		if from.IsZero() {
			from = windowStart
		}
		if to.IsZero() {
			to = windowEnd
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return domain.SearchQuery{}, fmt.Errorf("%w: range ends before it starts", domain.ErrInvalidInput)
	}

	restriction := &domain.SearchRestriction{
		Type:        kind,
		Field:       opts.Field,
		ListIDs:     opts.ListIDs,
		EventSeries: opts.EventSeries,
	}
	if !from.IsZero() {
		start := domain.StartOfDay(from).UnixMilli()
		restriction.Start = &start
	}
	if !to.IsZero() {
		end := domain.StartOfDay(to).UnixMilli()
		restriction.End = &end
	}

	query := domain.SearchQuery{
		Query:              text,
		Restriction:        restriction,
		MinSuggestionCount: settings.MinSuggestionCount,
	}

	switch {
	case opts.MaxResults > 0:
		limit := opts.MaxResults
		query.MaxResults = &limit
	case opts.MaxResults == 0 && settings.MaxResults > 0:
		limit := settings.MaxResults
		query.MaxResults = &limit
	}

	return query, nil
}
