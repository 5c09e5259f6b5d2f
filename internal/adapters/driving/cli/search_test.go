package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

func budgetMails() []domain.Mail {
	return []domain.Mail{
		{
			ID:         domain.IdTuple{ListID: "inbox", ElementID: "m1"},
			Subject:    "Quarterly budget",
			Sender:     "alice@example.com",
			Recipients: []string{"bob@example.com"},
			Body:       "Numbers for the budget review.",
			ReceivedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:         domain.IdTuple{ListID: "inbox", ElementID: "m2"},
			Subject:    "Lunch",
			Sender:     "carol@example.com",
			Body:       "Pizza on friday?",
			ReceivedAt: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_Flags(t *testing.T) {
	for _, name := range []string{"type", "from", "to", "list", "field", "series", "max", "json"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "t", searchCmd.Flags().Lookup("type").Shorthand)
	assert.Equal(t, "mail", searchCmd.Flags().Lookup("type").DefValue)
}

func TestSearchCmd_NoServices(t *testing.T) {
	SetServices(nil)
	t.Cleanup(resetFlags)

	_, err := execute(t, "search", "budget")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search model not configured")
}

func TestSearchCmd_FindsMail(t *testing.T) {
	stack := setupTestServices(t)
	stack.addMail(t, budgetMails()...)

	out, err := execute(t, "search", "budget")

	require.NoError(t, err)
	assert.Contains(t, out, "Results (1)")
	assert.Contains(t, out, "Quarterly budget")
	assert.Contains(t, out, "alice@example.com")
	assert.NotContains(t, out, "Lunch")
}

func TestSearchCmd_NoResults(t *testing.T) {
	stack := setupTestServices(t)
	stack.addMail(t, budgetMails()...)

	out, err := execute(t, "search", "nonexistent")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	stack := setupTestServices(t)
	stack.addMail(t, budgetMails()...)

	out, err := execute(t, "search", "--json", "pizza")
	require.NoError(t, err)

	var output searchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &output))
	assert.Equal(t, "mail", output.Type)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "m2", output.Results[0].ElementID)
	assert.Equal(t, "Lunch", output.Results[0].Title)
}

func TestSearchCmd_FieldRestriction(t *testing.T) {
	stack := setupTestServices(t)
	stack.addMail(t, budgetMails()...)

	out, err := execute(t, "search", "--field", "subject", "numbers")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_InvalidField(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "--field", "attachments", "x")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_InvalidType(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "--type", "notes", "x")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestSearchCmd_InvalidDate(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "--type", "calendar", "--from", "15/03/2024", "x")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_MailIndexDisabled(t *testing.T) {
	stack := setupTestServices(t)
	require.NoError(t, stack.indexer.DisableMailIndexing(t.Context()))

	out, err := execute(t, "search", "budget")

	require.NoError(t, err)
	assert.Contains(t, out, "unavailable while mail indexing is disabled")
}

func TestSearchCmd_Calendar(t *testing.T) {
	stack := setupTestServices(t)
	stack.addEvents(t,
		domain.CalendarEvent{
			ID:        domain.IdTuple{ListID: "work", ElementID: "e1"},
			Summary:   "Team standup",
			Location:  "Room 4",
			StartTime: time.Date(2024, 3, 18, 9, 0, 0, 0, time.Local),
			EndTime:   time.Date(2024, 3, 18, 9, 15, 0, 0, time.Local),
		},
		domain.CalendarEvent{
			ID:        domain.IdTuple{ListID: "work", ElementID: "e2"},
			Summary:   "Team standup",
			StartTime: time.Date(2024, 8, 18, 9, 0, 0, 0, time.Local),
			EndTime:   time.Date(2024, 8, 18, 9, 15, 0, 0, time.Local),
		},
	)

	out, err := execute(t, "search", "-t", "calendar", "standup")

	require.NoError(t, err)
	assert.Contains(t, out, "Results (1)")
	assert.Contains(t, out, "Room 4, 2024-03-18 09:00")
}

func TestSearchCmd_CalendarExplicitRange(t *testing.T) {
	stack := setupTestServices(t)
	stack.addEvents(t, domain.CalendarEvent{
		ID:        domain.IdTuple{ListID: "work", ElementID: "e2"},
		Summary:   "Team standup",
		StartTime: time.Date(2024, 8, 18, 9, 0, 0, 0, time.Local),
		EndTime:   time.Date(2024, 8, 18, 9, 15, 0, 0, time.Local),
	})

	out, err := execute(t, "search", "-t", "calendar", "--from", "2024-08-01", "--to", "2024-08-31", "standup")

	require.NoError(t, err)
	assert.Contains(t, out, "Results (1)")
}

func TestParseDay(t *testing.T) {
	day, err := parseDay("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local), day)

	zero, err := parseDay("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestFormatEventTime_AllDay(t *testing.T) {
	event := &domain.CalendarEvent{StartTime: time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), AllDay: true}

	assert.Equal(t, "2024-03-18", formatEventTime(event))
}
