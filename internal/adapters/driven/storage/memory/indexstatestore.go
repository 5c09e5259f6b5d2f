package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// Ensure IndexStateStore implements the interface.
var _ driven.IndexStateStore = (*IndexStateStore)(nil)

// IndexStateStore is an in-memory implementation of driven.IndexStateStore.
type IndexStateStore struct {
	mu    sync.RWMutex
	state *domain.IndexStateInfo
}

// NewIndexStateStore creates an empty index state store.
func NewIndexStateStore() *IndexStateStore {
	return &IndexStateStore{}
}

// LoadIndexState returns the saved state or domain.ErrNotFound.
func (s *IndexStateStore) LoadIndexState(_ context.Context) (*domain.IndexStateInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, domain.ErrNotFound
	}
	state := *s.state
	return &state, nil
}

// SaveIndexState replaces the saved state.
func (s *IndexStateStore) SaveIndexState(_ context.Context, state domain.IndexStateInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
	return nil
}
