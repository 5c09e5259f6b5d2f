package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
)

// Ensure EntityService implements the interface.
var _ driving.EntityService = (*EntityService)(nil)

// EntityService reads mails and events for display.
type EntityService struct {
	mails  driven.MailStore
	events driven.EventStore
}

// NewEntityService creates an entity service.
func NewEntityService(mails driven.MailStore, events driven.EventStore) *EntityService {
	return &EntityService{mails: mails, events: events}
}

// GetMail returns one mail.
func (s *EntityService) GetMail(ctx context.Context, id domain.IdTuple) (*domain.Mail, error) {
	return s.mails.GetMail(ctx, id)
}

// GetEvent returns one calendar event.
func (s *EntityService) GetEvent(ctx context.Context, id domain.IdTuple) (*domain.CalendarEvent, error) {
	return s.events.GetEvent(ctx, id)
}

// Counts returns the number of stored mails and events.
func (s *EntityService) Counts(ctx context.Context) (mails, events int, err error) {
	mails, err = s.mails.CountMails(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count mails: %w", err)
	}
	events, err = s.events.CountEvents(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count events: %w", err)
	}
	return mails, events, nil
}
