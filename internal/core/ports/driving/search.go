package driving

import (
	"context"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// SearchModel coordinates mail and calendar searches for view models.
type SearchModel interface {
	// Search runs query, reusing the outcome of an equal previous query.
	// A nil result with a nil error means no result is available.
	Search(ctx context.Context, query domain.SearchQuery, progress driven.ProgressTracker) (*domain.SearchResult, error)

	// IsNewSearch reports whether query and restriction differ from the published result.
	IsNewSearch(query string, restriction *domain.SearchRestriction) bool

	// Result is the latest published search result.
	Result() *observable.Value[*domain.SearchResult]

	// IndexState is the mail indexer state.
	IndexState() *observable.Value[domain.IndexStateInfo]

	// LastQuery is the text of the latest query.
	LastQuery() *observable.Value[string]
}
