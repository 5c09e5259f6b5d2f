package bleve

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

const msPerDay = int64(24 * time.Hour / time.Millisecond)

// Search runs query against the mail index.
//
// Every whitespace separated token must match one of the searched fields.
// With minSuggestionCount > 0 the last token also matches as a prefix. A query
// wrapped in double quotes is matched as a phrase. Hits are ordered newest
// first. A nil or non-positive maxResults returns every hit.
func (i *Index) Search(
	ctx context.Context,
	text string,
	restriction *domain.SearchRestriction,
	minSuggestionCount int,
	maxResults *int,
) (*domain.SearchResult, error) {
	fields, err := searchFields(restriction)
	if err != nil {
		return nil, err
	}

	words, phrase := parseQuery(text)
	result := &domain.SearchResult{
		Query:                  text,
		Restriction:            restriction,
		Results:                []domain.IdTuple{},
		MoreResults:            []domain.SearchIndexEntry{},
		MoreResultsEntries:     []domain.SearchIndexEntry{},
		LastReadSearchIndexRow: []domain.IndexRow{},
		MatchWordOrder:         phrase,
	}
	if maxResults != nil {
		result.MaxResults = *maxResults
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.idx == nil {
		return nil, storageError("searching", errIndexClosed)
	}
	result.CurrentIndexTimestamp = i.watermarkLocked()

	if len(words) == 0 {
		return result, nil
	}

	size := 0
	if maxResults != nil && *maxResults > 0 {
		size = *maxResults
	} else {
		count, err := i.idx.DocCount()
		if err != nil {
			return nil, storageError("counting documents", err)
		}
		size = int(count)
	}
	if size == 0 {
		return result, nil
	}

	q := buildQuery(words, phrase, fields, restriction, minSuggestionCount > 0)
	req := blevesearch.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = []string{"list_id", "element_id"}
	req.SortBy([]string{"-received_at", "_id"})

	logger.Debug("Index search: words=%v phrase=%v fields=%v size=%d", words, phrase, fields, size)

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, storageError("searching", err)
	}

	for _, hit := range res.Hits {
		listID, _ := hit.Fields["list_id"].(string)
		elementID, _ := hit.Fields["element_id"].(string)
		result.Results = append(result.Results, domain.IdTuple{ListID: listID, ElementID: elementID})
	}

	var next int64
	if res.Total > uint64(len(res.Hits)) {
		next = int64(len(res.Hits))
	}
	for _, w := range words {
		result.LastReadSearchIndexRow = append(result.LastReadSearchIndexRow, domain.IndexRow{Word: w, ID: next})
	}

	logger.Debug("Index search: %d of %d hits", len(res.Hits), res.Total)
	return result, nil
}

// searchFields returns the index fields a restriction allows.
func searchFields(restriction *domain.SearchRestriction) ([]string, error) {
	if restriction == nil || restriction.Field == "" {
		return domain.MailFields, nil
	}
	if !slices.Contains(domain.MailFields, restriction.Field) {
		return nil, fmt.Errorf("%w: unknown mail field %q", domain.ErrInvalidInput, restriction.Field)
	}
	return []string{restriction.Field}, nil
}

// parseQuery splits text into lowercase words. A fully quoted text is
// returned as a single phrase.
func parseQuery(text string) (words []string, phrase bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		if inner == "" {
			return nil, true
		}
		return []string{strings.ToLower(inner)}, true
	}
	return strings.Fields(strings.ToLower(trimmed)), false
}

func buildQuery(
	words []string,
	phrase bool,
	fields []string,
	restriction *domain.SearchRestriction,
	suggest bool,
) query.Query {
	var must []query.Query

	if phrase {
		must = append(must, acrossFields(fields, func(field string) query.Query {
			q := query.NewMatchPhraseQuery(words[0])
			q.SetField(field)
			return q
		}))
	} else {
		for n, word := range words {
			prefix := suggest && n == len(words)-1
			must = append(must, acrossFields(fields, func(field string) query.Query {
				if prefix {
					q := query.NewPrefixQuery(word)
					q.SetField(field)
					return q
				}
				q := query.NewMatchQuery(word)
				q.SetField(field)
				return q
			}))
		}
	}

	if restriction != nil {
		if restriction.Type != domain.KindUnknown {
			kind := query.NewTermQuery(restriction.Type.String())
			kind.SetField("kind")
			must = append(must, kind)
		}
		if len(restriction.ListIDs) > 0 {
			must = append(must, termsFilter("list_id", restriction.ListIDs))
		}
		if r := receivedRange(restriction.Start, restriction.End); r != nil {
			must = append(must, r)
		}
	}

	if len(must) == 1 {
		return must[0]
	}
	return query.NewConjunctionQuery(must)
}

func acrossFields(fields []string, build func(field string) query.Query) query.Query {
	if len(fields) == 1 {
		return build(fields[0])
	}
	disjuncts := make([]query.Query, 0, len(fields))
	for _, f := range fields {
		disjuncts = append(disjuncts, build(f))
	}
	return query.NewDisjunctionQuery(disjuncts)
}

func termsFilter(field string, values []string) query.Query {
	terms := make([]query.Query, 0, len(values))
	for _, v := range values {
		tq := query.NewTermQuery(v)
		tq.SetField(field)
		terms = append(terms, tq)
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return query.NewDisjunctionQuery(terms)
}

// receivedRange covers start through the whole end day.
func receivedRange(start, end *int64) query.Query {
	if start == nil && end == nil {
		return nil
	}
	inclusive := true
	var minPtr, maxPtr *float64
	if start != nil {
		v := float64(*start)
		minPtr = &v
	}
	if end != nil {
		v := float64(*end + msPerDay - 1)
		maxPtr = &v
	}
	rq := query.NewNumericRangeInclusiveQuery(minPtr, maxPtr, &inclusive, &inclusive)
	rq.SetField("received_at")
	return rq
}
