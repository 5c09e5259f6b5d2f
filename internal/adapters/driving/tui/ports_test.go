package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/services"
)

// MockSearchModel implements driving.SearchModel for testing.
type MockSearchModel struct {
	SearchFunc func(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error)

	state  *observable.Value[domain.IndexStateInfo]
	result *observable.Value[*domain.SearchResult]
	query  *observable.Value[string]
}

func NewMockSearchModel() *MockSearchModel {
	return &MockSearchModel{
		state:  observable.New(domain.DefaultIndexState()),
		result: observable.New[*domain.SearchResult](nil),
		query:  observable.New(""),
	}
}

func (m *MockSearchModel) Search(
	ctx context.Context, query domain.SearchQuery, _ driven.ProgressTracker,
) (*domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return &domain.SearchResult{Query: query.Query, Restriction: query.Restriction}, nil
}

func (m *MockSearchModel) IsNewSearch(string, *domain.SearchRestriction) bool { return true }

func (m *MockSearchModel) Result() *observable.Value[*domain.SearchResult] { return m.result }

func (m *MockSearchModel) IndexState() *observable.Value[domain.IndexStateInfo] { return m.state }

func (m *MockSearchModel) LastQuery() *observable.Value[string] { return m.query }

// MockEntityService implements driving.EntityService for testing.
type MockEntityService struct {
	Mails  map[domain.IdTuple]*domain.Mail
	Events map[domain.IdTuple]*domain.CalendarEvent
}

func (m *MockEntityService) GetMail(_ context.Context, id domain.IdTuple) (*domain.Mail, error) {
	if mail, ok := m.Mails[id]; ok {
		return mail, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockEntityService) GetEvent(_ context.Context, id domain.IdTuple) (*domain.CalendarEvent, error) {
	if event, ok := m.Events[id]; ok {
		return event, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockEntityService) Counts(context.Context) (int, int, error) {
	return len(m.Mails), len(m.Events), nil
}

func TestPorts_Validate_AllSet(t *testing.T) {
	ports := &Ports{
		Search:   NewMockSearchModel(),
		Entities: &MockEntityService{},
		Progress: services.NewProgressTracker(),
	}

	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate_OnlySearch(t *testing.T) {
	ports := &Ports{Search: NewMockSearchModel()}

	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate_MissingSearch(t *testing.T) {
	ports := &Ports{Entities: &MockEntityService{}}

	assert.ErrorIs(t, ports.Validate(), ErrMissingSearchModel)
}
