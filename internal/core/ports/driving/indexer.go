package driving

import (
	"context"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// MailIndexer maintains the mail index and publishes its state.
type MailIndexer interface {
	// Init restores the persisted state and ends the initializing phase.
	Init(ctx context.Context) error

	// EnableMailIndexing switches indexing on.
	EnableMailIndexing(ctx context.Context) error

	// DisableMailIndexing switches indexing off and drops the index.
	DisableMailIndexing(ctx context.Context) error

	// IndexMails stores and indexes mails.
	IndexMails(ctx context.Context, mails []domain.Mail) error

	// ImportFiles parses .eml files and indexes them. Returns the number indexed.
	ImportFiles(ctx context.Context, paths []string, folder string) (int, error)

	// State returns the current indexer state.
	State() domain.IndexStateInfo
}
