package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// ==================== Store Creation and Migrations ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "pimsearch.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_RecordsSchemaVersion(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.MailStore().SaveMails(context.Background(), []domain.Mail{
		{ID: domain.IdTuple{ListID: "inbox", ElementID: "m1"}, ReceivedAt: time.Now()},
	}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	count, err := second.MailStore().CountMails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// ==================== Mail Store ====================

func TestMailStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t).MailStore()
	ctx := context.Background()
	received := time.Date(2024, time.February, 3, 10, 30, 0, 0, time.UTC)

	mail := domain.Mail{
		ID:         domain.IdTuple{ListID: "inbox", ElementID: "m1"},
		Subject:    "Quarterly report",
		Sender:     "alice@example.com",
		Recipients: []string{"bob@example.com", "carol@example.com"},
		Body:       "Numbers attached.",
		ReceivedAt: received,
	}
	require.NoError(t, store.SaveMails(ctx, []domain.Mail{mail}))

	got, err := store.GetMail(ctx, mail.ID)
	require.NoError(t, err)
	assert.Equal(t, mail, *got)
}

func TestMailStore_GetMail_NotFound(t *testing.T) {
	store := setupTestStore(t).MailStore()

	_, err := store.GetMail(context.Background(), domain.IdTuple{ListID: "inbox", ElementID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMailStore_NilRecipientsStoredAsEmpty(t *testing.T) {
	store := setupTestStore(t).MailStore()
	ctx := context.Background()
	id := domain.IdTuple{ListID: "inbox", ElementID: "m1"}

	require.NoError(t, store.SaveMails(ctx, []domain.Mail{{ID: id, ReceivedAt: time.Now()}}))

	got, err := store.GetMail(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Recipients)
}

func TestMailStore_ListMails(t *testing.T) {
	store := setupTestStore(t).MailStore()
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveMails(ctx, []domain.Mail{
		{ID: domain.IdTuple{ListID: "inbox", ElementID: "old"}, ReceivedAt: base},
		{ID: domain.IdTuple{ListID: "inbox", ElementID: "new"}, ReceivedAt: base.Add(2 * time.Hour)},
		{ID: domain.IdTuple{ListID: "archive", ElementID: "mid"}, ReceivedAt: base.Add(time.Hour)},
	}))

	inbox, err := store.ListMails(ctx, "inbox", 0)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "new", inbox[0].ID.ElementID)

	limited, err := store.ListMails(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "new", limited[0].ID.ElementID)
	assert.Equal(t, "mid", limited[1].ID.ElementID)
}

// ==================== Event Store ====================

func TestEventStore_RoundTripsRepeatRule(t *testing.T) {
	store := setupTestStore(t).EventStore()
	ctx := context.Background()
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("time zone data unavailable")
	}
	until := time.Date(2024, time.December, 31, 0, 0, 0, 0, berlin)

	event := domain.CalendarEvent{
		ID:          domain.IdTuple{ListID: "work", ElementID: "standup"},
		UID:         "uid-1@example.com",
		Summary:     "Standup",
		Description: "<p>Daily sync</p>",
		Location:    "Room 4",
		StartTime:   time.Date(2024, time.March, 1, 9, 0, 0, 0, berlin),
		EndTime:     time.Date(2024, time.March, 1, 9, 15, 0, 0, berlin),
		RepeatRule:  &domain.RepeatRule{Frequency: domain.RepeatWeekly, Interval: 1, EndTime: &until},
	}
	require.NoError(t, store.SaveEvents(ctx, []domain.CalendarEvent{event}))

	got, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", got.StartTime.Location().String())
	assert.True(t, event.StartTime.Equal(got.StartTime))
	assert.Equal(t, event.Summary, got.Summary)
	require.NotNil(t, got.RepeatRule)
	assert.Equal(t, domain.RepeatWeekly, got.RepeatRule.Frequency)
	require.NotNil(t, got.RepeatRule.EndTime)
	assert.True(t, until.Equal(*got.RepeatRule.EndTime))
}

func TestEventStore_ListEventsMatchesDomainPredicate(t *testing.T) {
	store := setupTestStore(t).EventStore()
	ctx := context.Background()
	from := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	endedSeries := from.AddDate(0, -1, 0)

	events := []domain.CalendarEvent{
		{ID: domain.IdTuple{ListID: "c", ElementID: "inside"}, StartTime: from.AddDate(0, 0, 3), EndTime: from.AddDate(0, 0, 3).Add(time.Hour)},
		{ID: domain.IdTuple{ListID: "c", ElementID: "before"}, StartTime: from.AddDate(0, 0, -3), EndTime: from.AddDate(0, 0, -3).Add(time.Hour)},
		{ID: domain.IdTuple{ListID: "c", ElementID: "spanning"}, StartTime: from.Add(-time.Hour), EndTime: from.Add(time.Hour)},
		{ID: domain.IdTuple{ListID: "c", ElementID: "instant"}, StartTime: from, EndTime: from},
		{ID: domain.IdTuple{ListID: "c", ElementID: "after"}, StartTime: to, EndTime: to.Add(time.Hour)},
		{
			ID: domain.IdTuple{ListID: "c", ElementID: "series"}, StartTime: from.AddDate(-1, 0, 0), EndTime: from.AddDate(-1, 0, 0).Add(time.Hour),
			RepeatRule: &domain.RepeatRule{Frequency: domain.RepeatMonthly},
		},
		{
			ID: domain.IdTuple{ListID: "c", ElementID: "ended"}, StartTime: from.AddDate(-1, 0, 0), EndTime: from.AddDate(-1, 0, 0).Add(time.Hour),
			RepeatRule: &domain.RepeatRule{Frequency: domain.RepeatMonthly, EndTime: &endedSeries},
		},
	}
	require.NoError(t, store.SaveEvents(ctx, events))

	listed, err := store.ListEvents(ctx, from, to)
	require.NoError(t, err)

	var got []string
	for _, e := range listed {
		got = append(got, e.ID.ElementID)
	}
	var want []string
	for i := range events {
		if events[i].MayOccurWithin(from, to) {
			want = append(want, events[i].ID.ElementID)
		}
	}
	assert.ElementsMatch(t, want, got)
	assert.Equal(t, []string{"series", "spanning", "instant", "inside"}, got)
}

func TestEventStore_DeleteAndCount(t *testing.T) {
	store := setupTestStore(t).EventStore()
	ctx := context.Background()
	id := domain.IdTuple{ListID: "c", ElementID: "e"}

	require.NoError(t, store.SaveEvents(ctx, []domain.CalendarEvent{{ID: id, StartTime: time.Now(), EndTime: time.Now()}}))
	count, err := store.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.DeleteEvent(ctx, id))
	_, err = store.GetEvent(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Index State Store ====================

func TestIndexStateStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t).IndexStateStore()
	ctx := context.Background()

	_, err := store.LoadIndexState(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	failed := int64(1700000000000)
	state := domain.IndexStateInfo{
		MailIndexEnabled:          true,
		CurrentMailIndexTimestamp: 1700000500000,
		AimedMailIndexTimestamp:   1690000000000,
		IndexedMailCount:          42,
		FailedIndexingUpTo:        &failed,
	}
	require.NoError(t, store.SaveIndexState(ctx, state))

	got, err := store.LoadIndexState(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, *got)

	state.FailedIndexingUpTo = nil
	state.IndexedMailCount = 43
	require.NoError(t, store.SaveIndexState(ctx, state))

	got, err = store.LoadIndexState(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, *got)
}

func TestIndexStateStore_NothingIndexedSentinel(t *testing.T) {
	store := setupTestStore(t).IndexStateStore()
	ctx := context.Background()

	require.NoError(t, store.SaveIndexState(ctx, domain.DefaultIndexState()))

	got, err := store.LoadIndexState(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.NothingIndexedTimestamp, got.CurrentMailIndexTimestamp)
}
