package domain

import "slices"

// SearchRestriction scopes a search to an entity kind, a date range,
// a set of lists and optionally a single field.
type SearchRestriction struct {
	// Type is the entity kind to search.
	Type EntityKind

	// Start and End are inclusive day-aligned bounds in epoch milliseconds.
	// Calendar searches require both.
	Start *int64
	End   *int64

	// Field limits matching to one field (e.g. "subject"). Empty means all fields.
	Field string

	// AttributeIDs are the attribute ids backing Field. Compared as a multiset.
	AttributeIDs []int64

	// ListIDs limits the search to these folders or calendars. Empty means all.
	ListIDs []string

	// EventSeries filters repeating events: false excludes them, nil or true allows them.
	EventSeries *bool
}

// SameSearchRestriction reports whether two restrictions describe the same search.
// A nil EventSeries is treated as an alias for true.
func SameSearchRestriction(a, b *SearchRestriction) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Type == b.Type &&
		sameInt64Ptr(a.Start, b.Start) &&
		sameInt64Ptr(a.End, b.End) &&
		a.Field == b.Field &&
		sameMultiset(a.AttributeIDs, b.AttributeIDs) &&
		sameEventSeries(a.EventSeries, b.EventSeries) &&
		slices.Equal(a.ListIDs, b.ListIDs)
}

func sameInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameEventSeries(a, b *bool) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil {
		return *b
	}
	if b == nil {
		return *a
	}
	return *a == *b
}

func sameMultiset(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[int64]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// SearchQuery is a single search request.
type SearchQuery struct {
	Query              string
	Restriction        *SearchRestriction
	MinSuggestionCount int

	// MaxResults caps the number of hits. Nil means unbounded.
	MaxResults *int
}

// Equal reports whether two queries would produce the same search.
func (q SearchQuery) Equal(other SearchQuery) bool {
	return q.Query == other.Query &&
		SameSearchRestriction(q.Restriction, other.Restriction) &&
		q.MinSuggestionCount == other.MinSuggestionCount &&
		sameIntPtr(q.MaxResults, other.MaxResults)
}

func sameIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SearchIndexEntry is a pending index hit kept for pagination.
type SearchIndexEntry struct {
	ID        IdTuple `json:"id"`
	Timestamp int64   `json:"timestamp"`
}

// IndexRow records how far the index was read for one search word.
// An ID of zero marks the word as exhausted.
type IndexRow struct {
	Word string `json:"word"`
	ID   int64  `json:"id"`
}

// SearchResult is the uniform answer for every search kind.
type SearchResult struct {
	Query       string             `json:"query"`
	Restriction *SearchRestriction `json:"-"`

	// Results lists matched entities in result order.
	Results []IdTuple `json:"results"`

	// CurrentIndexTimestamp is the index watermark the search ran against.
	// Always 0 for calendar searches.
	CurrentIndexTimestamp int64 `json:"current_index_timestamp"`

	MoreResults            []SearchIndexEntry `json:"more_results"`
	MoreResultsEntries     []SearchIndexEntry `json:"more_results_entries"`
	LastReadSearchIndexRow []IndexRow         `json:"last_read_search_index_row"`
	MaxResults             int                `json:"max_results"`

	// MatchWordOrder is true when hits must contain the words in query order.
	MatchWordOrder bool `json:"match_word_order"`
}

// HasMoreResults reports whether the index can serve more hits for result.
func HasMoreResults(result *SearchResult) bool {
	if result == nil {
		return false
	}
	if len(result.MoreResults) > 0 {
		return true
	}
	if len(result.LastReadSearchIndexRow) == 0 {
		return false
	}
	for _, row := range result.LastReadSearchIndexRow {
		if row.ID == 0 {
			return false
		}
	}
	return true
}

// AreResultsForTheSameQuery reports whether two results answer the same query.
func AreResultsForTheSameQuery(a, b *SearchResult) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Query == b.Query && SameSearchRestriction(a.Restriction, b.Restriction)
}
