package driven

import (
	"context"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// MailStore persists mails.
type MailStore interface {
	// SaveMails inserts or replaces mails.
	SaveMails(ctx context.Context, mails []domain.Mail) error

	// GetMail retrieves one mail. Returns domain.ErrNotFound if missing.
	GetMail(ctx context.Context, id domain.IdTuple) (*domain.Mail, error)

	// ListMails returns mails newest first. An empty folder lists all folders.
	// A limit of 0 means no limit.
	ListMails(ctx context.Context, folder string, limit int) ([]domain.Mail, error)

	// CountMails returns the number of stored mails.
	CountMails(ctx context.Context) (int, error)
}

// IndexStateStore persists the mail indexer state between runs.
type IndexStateStore interface {
	// LoadIndexState returns domain.ErrNotFound before the first save.
	LoadIndexState(ctx context.Context) (*domain.IndexStateInfo, error)

	// SaveIndexState stores the state.
	SaveIndexState(ctx context.Context, state domain.IndexStateInfo) error
}
