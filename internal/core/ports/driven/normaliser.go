package driven

import (
	"context"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// MailNormaliser turns a raw RFC 5322 message into a Mail.
type MailNormaliser interface {
	// Normalise parses content read from uri into a mail filed in folder.
	Normalise(ctx context.Context, content []byte, uri, folder string) (*domain.Mail, error)
}

// EventNormaliser turns raw calendar data into events.
type EventNormaliser interface {
	// Normalise parses content read from uri into events of calendar listID.
	Normalise(ctx context.Context, content []byte, uri, listID string) ([]domain.CalendarEvent, error)
}
