package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// Ensure MailStore implements the interface.
var _ driven.MailStore = (*MailStore)(nil)

// MailStore is an in-memory implementation of driven.MailStore.
type MailStore struct {
	mu    sync.RWMutex
	mails map[string]domain.Mail
}

// NewMailStore creates a new in-memory mail store.
func NewMailStore() *MailStore {
	return &MailStore{
		mails: make(map[string]domain.Mail),
	}
}

// SaveMails stores or replaces mails.
func (s *MailStore) SaveMails(_ context.Context, mails []domain.Mail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range mails {
		s.mails[m.ID.Key()] = m
	}
	return nil
}

// GetMail retrieves a mail by ID.
func (s *MailStore) GetMail(_ context.Context, id domain.IdTuple) (*domain.Mail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mails[id.Key()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

// ListMails returns mails in folder, newest first. An empty folder lists every
// mail and a limit of zero or less means no limit.
func (s *MailStore) ListMails(_ context.Context, folder string, limit int) ([]domain.Mail, error) {
	s.mu.RLock()
	var result []domain.Mail
	for _, m := range s.mails {
		if folder == "" || m.ID.ListID == folder {
			result = append(result, m)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(result, func(a, b domain.Mail) int {
		return b.ReceivedAt.Compare(a.ReceivedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountMails returns the number of stored mails.
func (s *MailStore) CountMails(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mails), nil
}
