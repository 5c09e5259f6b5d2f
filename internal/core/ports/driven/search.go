package driven

import (
	"context"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// IndexSearch provides index-backed full-text search.
// Failures of the index itself must wrap domain.ErrStorage.
type IndexSearch interface {
	// Search runs query against the index. A nil maxResults means unbounded.
	Search(
		ctx context.Context,
		query string,
		restriction *domain.SearchRestriction,
		minSuggestionCount int,
		maxResults *int,
	) (*domain.SearchResult, error)
}

// MailIndex maintains the mail full-text index.
type MailIndex interface {
	// IndexMails adds or replaces mails in the index.
	IndexMails(ctx context.Context, mails []domain.Mail) error

	// DeleteMail removes one mail from the index.
	DeleteMail(ctx context.Context, id domain.IdTuple) error

	// SetWatermark records the received time (epoch ms) of the oldest indexed mail.
	SetWatermark(timestamp int64) error

	// Watermark returns the stored watermark, or domain.NothingIndexedTimestamp.
	Watermark() int64

	// Clear drops every indexed mail.
	Clear() error

	// Close releases resources.
	Close() error
}
