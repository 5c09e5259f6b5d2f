package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Ensure SearchModel implements the interface.
var _ driving.SearchModel = (*SearchModel)(nil)

// searchCall is the outcome of one dispatched search. Equal queries share it.
type searchCall struct {
	done   chan struct{}
	result *domain.SearchResult
	err    error
}

func newSearchCall() *searchCall {
	return &searchCall{done: make(chan struct{})}
}

func (c *searchCall) finish(result *domain.SearchResult, err error) {
	c.result = result
	c.err = err
	close(c.done)
}

func (c *searchCall) wait(ctx context.Context) (*domain.SearchResult, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SearchModel coordinates mail and calendar searches.
//
// Calendar searches scan the events of the requested months in memory.
// Every other kind goes to the index. Equal queries share one underlying
// search. Each dispatch carries a generation, and only the latest generation
// may publish, so a superseded search can never overwrite a newer result.
//
// Subscribers of the published values must not call Search synchronously.
type SearchModel struct {
	index    driven.IndexSearch
	calendar driven.CalendarEventProvider

	mu         sync.Mutex
	location   *time.Location
	lastQuery  *domain.SearchQuery
	lastCall   *searchCall
	generation uint64

	result     *observable.Value[*domain.SearchResult]
	indexState *observable.Value[domain.IndexStateInfo]
	lastText   *observable.Value[string]
}

// NewSearchModel creates a search model.
// indexState is owned by the mail indexer; when nil a default state is used.
// calendar may be nil, in which case calendar searches fail with
// domain.ErrSearchUnavailable.
func NewSearchModel(
	index driven.IndexSearch,
	calendar driven.CalendarEventProvider,
	indexState *observable.Value[domain.IndexStateInfo],
) *SearchModel {
	if indexState == nil {
		indexState = observable.New(domain.DefaultIndexState())
	}

	idle := newSearchCall()
	idle.finish(nil, nil)

	return &SearchModel{
		index:      index,
		calendar:   calendar,
		location:   time.Local,
		lastCall:   idle,
		result:     observable.New[*domain.SearchResult](nil),
		indexState: indexState,
		lastText:   observable.New(""),
	}
}

// SetLocation sets the time zone month boundaries are computed in.
func (m *SearchModel) SetLocation(loc *time.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.location = loc
}

func (m *SearchModel) loc() *time.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.location
}

// Result is the latest published search result. Nil means none.
func (m *SearchModel) Result() *observable.Value[*domain.SearchResult] {
	return m.result
}

// IndexState is the mail indexer state.
func (m *SearchModel) IndexState() *observable.Value[domain.IndexStateInfo] {
	return m.indexState
}

// LastQuery is the text of the latest query.
func (m *SearchModel) LastQuery() *observable.Value[string] {
	return m.lastText
}

// Search runs query, or returns the outcome of the previous search when the
// query equals it. A nil result with a nil error means no result is available:
// the mail index failed while mail indexing was disabled.
func (m *SearchModel) Search(
	ctx context.Context, query domain.SearchQuery, progress driven.ProgressTracker,
) (*domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query.Query)

	if err := validateQuery(query); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.lastQuery != nil && query.Equal(*m.lastQuery) {
		call := m.lastCall
		m.mu.Unlock()
		logger.Debug("Same as the last query, reusing its outcome")
		return call.wait(ctx)
	}

	last := query
	m.lastQuery = &last
	m.generation++
	gen := m.generation
	call := newSearchCall()
	m.lastCall = call

	m.lastText.Set(query.Query)
	m.invalidateResult(query.Restriction)
	m.mu.Unlock()

	result, err := m.dispatch(ctx, query, progress, gen)
	if err != nil && ctx.Err() != nil {
		// The caller gave up; an equal query later must search again.
		m.mu.Lock()
		if m.lastCall == call {
			m.lastQuery = nil
		}
		m.mu.Unlock()
	}
	call.finish(result, err)
	return result, err
}

// IsNewSearch reports whether the published result answers a different query.
func (m *SearchModel) IsNewSearch(query string, restriction *domain.SearchRestriction) bool {
	result := m.result.Get()
	if result == nil {
		return true
	}
	if query != result.Query {
		return true
	}
	if result.Restriction == restriction {
		return false
	}
	return !domain.SameSearchRestriction(restriction, result.Restriction)
}

// validateQuery enforces the preconditions a caller must meet.
func validateQuery(query domain.SearchQuery) error {
	r := query.Restriction
	if r == nil {
		return fmt.Errorf("%w: search without restriction", domain.ErrContractViolation)
	}
	if r.Type == domain.KindCalendarEvent && strings.TrimSpace(query.Query) != "" {
		if r.Start == nil || r.End == nil {
			return fmt.Errorf("%w: calendar search requires start and end", domain.ErrContractViolation)
		}
	}
	return nil
}

// invalidateResult clears the published result when it can no longer be shown
// for restriction. Caller must hold m.mu.
func (m *SearchModel) invalidateResult(restriction *domain.SearchRestriction) {
	prev := m.result.Get()
	if prev == nil || prev.Restriction == nil {
		return
	}

	switch {
	case prev.Restriction.Type != restriction.Type:
		logger.Debug("Search type changed from %s to %s, clearing result", prev.Restriction.Type, restriction.Type)
		m.result.Set(nil)
	case m.indexState.Get().Progress > 0 && prev.Restriction.Type == domain.KindMail:
		logger.Debug("Mail indexing in progress, clearing stale mail result")
		m.result.Set(nil)
	}
}

// publish stores result unless a newer search was dispatched after gen.
func (m *SearchModel) publish(gen uint64, result *domain.SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		logger.Debug("Dropping result of superseded search (generation %d, latest %d)", gen, m.generation)
		return
	}
	m.result.Set(result)
}

func (m *SearchModel) dispatch(
	ctx context.Context, query domain.SearchQuery, progress driven.ProgressTracker, gen uint64,
) (*domain.SearchResult, error) {
	if strings.TrimSpace(query.Query) == "" {
		logger.Debug("Empty query, publishing empty result")
		result := m.emptyResult(query)
		m.publish(gen, result)
		return result, nil
	}

	switch query.Restriction.Type {
	case domain.KindCalendarEvent:
		result, err := m.searchCalendar(ctx, query, progress)
		if err != nil {
			return nil, err
		}
		m.publish(gen, result)
		return result, nil

	case domain.KindMail, domain.KindContact, domain.KindUnknown:
		return m.searchIndex(ctx, query, gen)

	default:
		return nil, fmt.Errorf("search %s: %w", query.Restriction.Type, domain.ErrUnsupportedType)
	}
}

func (m *SearchModel) emptyResult(query domain.SearchQuery) *domain.SearchResult {
	return &domain.SearchResult{
		Query:                  query.Query,
		Restriction:            query.Restriction,
		Results:                []domain.IdTuple{},
		CurrentIndexTimestamp:  m.indexState.Get().CurrentMailIndexTimestamp,
		LastReadSearchIndexRow: []domain.IndexRow{},
		MaxResults:             0,
		MatchWordOrder:         false,
		MoreResults:            []domain.SearchIndexEntry{},
		MoreResultsEntries:     []domain.SearchIndexEntry{},
	}
}

func (m *SearchModel) searchIndex(
	ctx context.Context, query domain.SearchQuery, gen uint64,
) (*domain.SearchResult, error) {
	if m.index == nil {
		return nil, domain.ErrSearchUnavailable
	}

	logger.Debug("Index search: type=%s, suggestions=%d", query.Restriction.Type, query.MinSuggestionCount)
	result, err := m.index.Search(ctx, query.Query, query.Restriction, query.MinSuggestionCount, query.MaxResults)
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			logger.Warn("Storage error while searching: %v", err)
			if query.Restriction.Type == domain.KindMail && !m.indexState.Get().MailIndexEnabled {
				logger.Info("Mail indexing is disabled, ignoring storage error")
				m.publish(gen, nil)
				return nil, nil
			}
		}
		return nil, fmt.Errorf("index search: %w", err)
	}

	logger.Info("Index search: %d results", len(result.Results))
	m.publish(gen, result)
	return result, nil
}

func (m *SearchModel) searchCalendar(
	ctx context.Context, query domain.SearchQuery, progress driven.ProgressTracker,
) (*domain.SearchResult, error) {
	if m.calendar == nil {
		return nil, fmt.Errorf("calendar search: %w", domain.ErrSearchUnavailable)
	}
	if progress == nil {
		progress = noopProgressTracker{}
	}

	restriction := query.Restriction
	loc := m.loc()
	start := time.UnixMilli(*restriction.Start).In(loc)
	end := time.UnixMilli(*restriction.End).In(loc)
	months := monthsInRange(start, end)
	logger.Debug("Calendar search over %d months", len(months))

	handle := progress.RegisterMonitorSync(len(months))
	monitor, ok := progress.GetMonitor(handle)
	if !ok {
		return nil, fmt.Errorf("%w: progress monitor %d is not registered", domain.ErrContractViolation, handle)
	}
	err := m.calendar.LoadMonthsIfNeeded(ctx, months, monitor)
	monitor.Completed()
	if err != nil {
		return nil, fmt.Errorf("load calendar months: %w", err)
	}

	days := m.calendar.EventsForMonths().Get()

	result := &domain.SearchResult{
		Query:                  query.Query,
		Restriction:            restriction,
		Results:                []domain.IdTuple{},
		CurrentIndexTimestamp:  0,
		MoreResults:            []domain.SearchIndexEntry{},
		MoreResultsEntries:     []domain.SearchIndexEntry{},
		LastReadSearchIndexRow: []domain.IndexRow{},
		MatchWordOrder:         false,
	}

	tokens := tokenize(strings.TrimSpace(query.Query))
	if len(tokens) > 0 {
		result.Results = matchEvents(days, tokens, restriction)
	}

	logger.Info("Calendar search: %d results", len(result.Results))
	return result, nil
}

// monthsInRange returns the first instant of every month from start's month
// through end's month.
func monthsInRange(start, end time.Time) []time.Time {
	var months []time.Time
	for current := domain.StartOfMonth(start); !current.After(end); current = current.AddDate(0, 1, 0) {
		months = append(months, current)
	}
	return months
}

// matchEvents returns the ids of events on days within the restriction whose
// summary or description contains any token. Days are visited in the order
// given; an event id is reported once, at its first match.
func matchEvents(days domain.DaysToEvents, tokens []string, r *domain.SearchRestriction) []domain.IdTuple {
	results := []domain.IdTuple{}
	added := make(map[string]struct{})

	for _, day := range days {
		if day.DayStart < *r.Start || day.DayStart > *r.End {
			continue
		}
		for i := range day.Events {
			event := &day.Events[i]
			key := event.ID.Key()
			if _, ok := added[key]; ok {
				continue
			}
			if len(r.ListIDs) > 0 && !slices.Contains(r.ListIDs, event.ID.ListID) {
				continue
			}
			if r.EventSeries != nil && !*r.EventSeries && event.RepeatRule != nil {
				continue
			}

			// Summary first: it is short and needs no tag stripping.
			if containsAny(lowercase(event.Summary), tokens) ||
				containsAny(lowercase(stripHTML(event.Description)), tokens) {
				added[key] = struct{}{}
				results = append(results, event.ID)
			}
		}
	}

	return results
}

func containsAny(text string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}
