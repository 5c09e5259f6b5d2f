package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

func defaultSettings() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	server.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local) }
	return server
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()
	mailID := domain.IdTuple{ListID: "inbox", ElementID: "m1"}
	eventID := domain.IdTuple{ListID: "calendar", ElementID: "e1"}

	entities := &mockEntityService{
		mails: map[domain.IdTuple]*domain.Mail{
			mailID: {
				ID:         mailID,
				Subject:    "Budget review",
				Sender:     "Alice <alice@example.com>",
				ReceivedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
			},
		},
		events: map[domain.IdTuple]*domain.CalendarEvent{
			eventID: {
				ID:        eventID,
				Summary:   "Standup",
				Location:  "Room 4",
				StartTime: time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC),
			},
		},
	}

	t.Run("returns resolved mail results", func(t *testing.T) {
		search := newMockSearchModel()
		search.result = &domain.SearchResult{
			Query:   "budget",
			Results: []domain.IdTuple{mailID, {ListID: "inbox", ElementID: "gone"}},
		}
		server := newTestServer(t, &Ports{Search: search, Entities: entities})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "budget", Limit: 5})
		require.NoError(t, err)

		assert.Equal(t, 2, output.Count)
		assert.False(t, output.HasMore)
		assert.Equal(t, "mail", output.Results[0].Kind)
		assert.Equal(t, "Budget review", output.Results[0].Title)
		assert.Equal(t, "Alice <alice@example.com>", output.Results[0].From)
		assert.Equal(t, "2024-03-10T09:00:00Z", output.Results[0].When)
		assert.Equal(t, "gone", output.Results[1].ElementID)
		assert.Empty(t, output.Results[1].Title)

		require.Len(t, search.queries, 1)
		assert.Equal(t, domain.KindMail, search.queries[0].Restriction.Type)
		assert.Equal(t, 5, *search.queries[0].MaxResults)
	})

	t.Run("calendar search uses the configured window", func(t *testing.T) {
		search := newMockSearchModel()
		search.result = &domain.SearchResult{Query: "standup", Results: []domain.IdTuple{eventID}}
		settings := defaultSettings()
		settings.Search.CalendarMonths = 1
		server := newTestServer(t, &Ports{
			Search:   search,
			Entities: entities,
			Settings: &mockSettingsService{settings: settings},
		})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "standup", Type: "calendar"})
		require.NoError(t, err)

		require.Len(t, output.Results, 1)
		assert.Equal(t, "calendar", output.Results[0].Kind)
		assert.Equal(t, "Standup", output.Results[0].Title)
		assert.Equal(t, "Room 4", output.Results[0].Location)

		restriction := search.queries[0].Restriction
		require.NotNil(t, restriction.Start)
		require.NotNil(t, restriction.End)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local).UnixMilli(), *restriction.Start)
		assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.Local).UnixMilli(), *restriction.End)
	})

	t.Run("explicit dates and lists", func(t *testing.T) {
		search := newMockSearchModel()
		search.result = &domain.SearchResult{}
		server := newTestServer(t, &Ports{Search: search})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{
			Query: "trip",
			From:  "2024-01-01",
			To:    "2024-01-31",
			Lists: []string{"archive"},
			Field: "subject",
		})
		require.NoError(t, err)

		restriction := search.queries[0].Restriction
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local).UnixMilli(), *restriction.Start)
		assert.Equal(t, []string{"archive"}, restriction.ListIDs)
		assert.Equal(t, "subject", restriction.Field)
	})

	t.Run("nil result reports unavailable mail search", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: newMockSearchModel()})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.NoError(t, err)
		assert.Zero(t, output.Count)
		assert.NotEmpty(t, output.Note)
	})

	t.Run("invalid input", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: newMockSearchModel()})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "x", Type: "notes"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x", From: "March"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		search := newMockSearchModel()
		search.err = errors.New("search failed")
		server := newTestServer(t, &Ports{Search: search})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleStatus(t *testing.T) {
	search := newMockSearchModel()
	state := domain.DefaultIndexState()
	state.Initializing = false
	state.MailIndexEnabled = true
	state.IndexedMailCount = 3
	search.state.Set(state)

	entities := &mockEntityService{
		mails: map[domain.IdTuple]*domain.Mail{
			{ListID: "inbox", ElementID: "1"}: {},
			{ListID: "inbox", ElementID: "2"}: {},
		},
	}
	server := newTestServer(t, &Ports{Search: search, Entities: entities})

	_, output, err := server.handleStatus(context.Background(), nil, StatusInput{})
	require.NoError(t, err)

	assert.True(t, output.State.MailIndexEnabled)
	assert.Equal(t, 3, output.State.IndexedMailCount)
	assert.Equal(t, 2, output.Mails)
	assert.Zero(t, output.Events)
}
