package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

func TestParseEntityURI(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		want   domain.IdTuple
		wantOK bool
	}{
		{"valid mail URI", "pimsearch://mails/inbox/abc", domain.IdTuple{ListID: "inbox", ElementID: "abc"}, true},
		{"nested list", "pimsearch://mails/work/projects/abc", domain.IdTuple{ListID: "work/projects", ElementID: "abc"}, true},
		{"invalid prefix", "file://mails/inbox/abc", domain.IdTuple{}, false},
		{"missing element", "pimsearch://mails/inbox/", domain.IdTuple{}, false},
		{"missing list", "pimsearch://mails/abc", domain.IdTuple{}, false},
		{"empty URI", "", domain.IdTuple{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseEntityURI(tt.uri, mailsPrefix)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleIndexStateResource(t *testing.T) {
	server := newTestServer(t, &Ports{Search: newMockSearchModel()})

	result, err := server.handleIndexStateResource(context.Background(), makeReadResourceRequest("pimsearch://index-state"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, `"initializing": true`)
}

func TestServer_handleMailResource(t *testing.T) {
	ctx := context.Background()
	id := domain.IdTuple{ListID: "inbox", ElementID: "m1"}
	entities := &mockEntityService{
		mails: map[domain.IdTuple]*domain.Mail{
			id: {
				ID:         id,
				Subject:    "Lunch",
				Sender:     "bob@example.com",
				Recipients: []string{"me@example.com", "team@example.com"},
				Body:       "Noon at the usual place.",
				ReceivedAt: time.Date(2024, 3, 11, 11, 0, 0, 0, time.UTC),
			},
		},
	}

	t.Run("returns formatted mail", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: newMockSearchModel(), Entities: entities})

		result, err := server.handleMailResource(ctx, makeReadResourceRequest("pimsearch://mails/inbox/m1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)

		text := result.Contents[0].Text
		assert.Contains(t, text, "Subject: Lunch\n")
		assert.Contains(t, text, "To: me@example.com, team@example.com\n")
		assert.Contains(t, text, "Folder: inbox\n")
		assert.Contains(t, text, "Noon at the usual place.")
	})

	t.Run("unknown mail returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: newMockSearchModel(), Entities: entities})

		_, err := server.handleMailResource(ctx, makeReadResourceRequest("pimsearch://mails/inbox/nope"))
		require.Error(t, err)
	})

	t.Run("nil entity service returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: newMockSearchModel()})

		_, err := server.handleMailResource(ctx, makeReadResourceRequest("pimsearch://mails/inbox/m1"))
		require.Error(t, err)
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		server := newTestServer(t, &Ports{
			Search:   newMockSearchModel(),
			Entities: &mockEntityService{err: errors.New("database error")},
		})

		_, err := server.handleMailResource(ctx, makeReadResourceRequest("pimsearch://mails/inbox/m1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting mail")
	})
}

func TestServer_handleEventResource(t *testing.T) {
	id := domain.IdTuple{ListID: "calendar", ElementID: "e1"}
	entities := &mockEntityService{
		events: map[domain.IdTuple]*domain.CalendarEvent{
			id: {ID: id, Summary: "Standup", StartTime: time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)},
		},
	}
	server := newTestServer(t, &Ports{Search: newMockSearchModel(), Entities: entities})

	result, err := server.handleEventResource(context.Background(), makeReadResourceRequest("pimsearch://events/calendar/e1"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"summary": "Standup"`)

	_, err = server.handleEventResource(context.Background(), makeReadResourceRequest("pimsearch://mails/calendar/e1"))
	require.Error(t, err)
}
