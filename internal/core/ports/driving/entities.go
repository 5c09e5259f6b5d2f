package driving

import (
	"context"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// EntityService resolves the ids in a search result to the stored entities.
type EntityService interface {
	// GetMail returns one mail. Returns domain.ErrNotFound if missing.
	GetMail(ctx context.Context, id domain.IdTuple) (*domain.Mail, error)

	// GetEvent returns one calendar event. Returns domain.ErrNotFound if missing.
	GetEvent(ctx context.Context, id domain.IdTuple) (*domain.CalendarEvent, error)

	// Counts returns the number of stored mails and events.
	Counts(ctx context.Context) (mails, events int, err error)
}
