package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/adapters/driven/index/bleve"
	"github.com/custodia-labs/pimsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/services"
	"github.com/custodia-labs/pimsearch/internal/normalisers/eml"
	"github.com/custodia-labs/pimsearch/internal/normalisers/ics"
)

// testStack is an in-memory service graph installed for one test.
type testStack struct {
	indexer  *services.MailIndexer
	events   *memory.EventStore
	settings *services.SettingsService
}

// fixedNow is the clock used by commands under test.
var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

// setupTestServices installs in-memory services and resets command flags.
func setupTestServices(t *testing.T) *testStack {
	t.Helper()
	ctx := context.Background()

	index, err := bleve.Open("")
	require.NoError(t, err)

	mails := memory.NewMailStore()
	events := memory.NewEventStore()

	indexer := services.NewMailIndexer(mails, index, memory.NewIndexStateStore(), eml.New())
	require.NoError(t, indexer.Init(ctx))

	icsNormaliser := ics.New()
	repo := services.NewCalendarEventsRepository(events)
	importer := services.NewCalendarImporter(events, icsNormaliser, nil, repo)
	settings := services.NewSettingsService(memory.NewConfigStore())

	SetServices(&Services{
		Search:   services.NewSearchModel(index, repo, indexer.StateValue()),
		Indexer:  indexer,
		Calendar: importer,
		Entities: services.NewEntityService(mails, events),
		Settings: settings,
		Progress: services.NewProgressTracker(),
		Close:    index.Close,
	})

	originalNow := now
	now = func() time.Time { return fixedNow }

	t.Cleanup(func() {
		_ = Shutdown()
		SetServices(nil)
		now = originalNow
		resetFlags()
	})

	return &testStack{indexer: indexer, events: events, settings: settings}
}

// resetFlags restores flag variables that persist between Execute calls.
func resetFlags() {
	searchType = "mail"
	searchFrom, searchTo, searchField = "", "", ""
	searchLists = nil
	searchSeries = false
	searchMax = 0
	searchJSON = false
	indexFolder = ""
	watchFolder = ""
	calendarList = domain.DefaultCalendarListID
	calendarFrom, calendarTo = "", ""
	calendarNoBrowse = false
	if f := searchCmd.Flags().Lookup("series"); f != nil {
		f.Changed = false
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func (s *testStack) addMail(t *testing.T, mails ...domain.Mail) {
	t.Helper()
	require.NoError(t, s.indexer.IndexMails(context.Background(), mails))
}

func (s *testStack) addEvents(t *testing.T, events ...domain.CalendarEvent) {
	t.Helper()
	require.NoError(t, s.events.SaveEvents(context.Background(), events))
}
