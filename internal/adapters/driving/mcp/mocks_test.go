package mcp

import (
	"context"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// mockSearchModel is a mock implementation of driving.SearchModel.
type mockSearchModel struct {
	result  *domain.SearchResult
	err     error
	queries []domain.SearchQuery
	state   *observable.Value[domain.IndexStateInfo]
}

func newMockSearchModel() *mockSearchModel {
	return &mockSearchModel{state: observable.New(domain.DefaultIndexState())}
}

func (m *mockSearchModel) Search(
	_ context.Context,
	query domain.SearchQuery,
	_ driven.ProgressTracker,
) (*domain.SearchResult, error) {
	m.queries = append(m.queries, query)
	return m.result, m.err
}

func (m *mockSearchModel) IsNewSearch(string, *domain.SearchRestriction) bool {
	return true
}

func (m *mockSearchModel) Result() *observable.Value[*domain.SearchResult] {
	return observable.New(m.result)
}

func (m *mockSearchModel) IndexState() *observable.Value[domain.IndexStateInfo] {
	return m.state
}

func (m *mockSearchModel) LastQuery() *observable.Value[string] {
	return observable.New("")
}

// mockEntityService is a mock implementation of driving.EntityService.
type mockEntityService struct {
	mails  map[domain.IdTuple]*domain.Mail
	events map[domain.IdTuple]*domain.CalendarEvent
	err    error
}

func (m *mockEntityService) GetMail(_ context.Context, id domain.IdTuple) (*domain.Mail, error) {
	if m.err != nil {
		return nil, m.err
	}
	mail, ok := m.mails[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return mail, nil
}

func (m *mockEntityService) GetEvent(_ context.Context, id domain.IdTuple) (*domain.CalendarEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	event, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

func (m *mockEntityService) Counts(context.Context) (mails, events int, err error) {
	return len(m.mails), len(m.events), m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Keys() []string { return nil }

func (m *mockSettingsService) Set(string, string) error {
	return m.err
}
