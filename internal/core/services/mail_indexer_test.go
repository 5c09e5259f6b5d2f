package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pimsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// mockMailIndex implements driven.MailIndex for testing.
type mockMailIndex struct {
	mu        sync.Mutex
	indexed   []domain.Mail
	watermark int64
	cleared   bool
	indexErr  error
	failAfter int
}

func newMockMailIndex() *mockMailIndex {
	return &mockMailIndex{watermark: domain.NothingIndexedTimestamp}
}

func (m *mockMailIndex) IndexMails(_ context.Context, mails []domain.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexErr != nil && len(m.indexed) >= m.failAfter {
		return m.indexErr
	}
	m.indexed = append(m.indexed, mails...)
	return nil
}

func (m *mockMailIndex) DeleteMail(context.Context, domain.IdTuple) error { return nil }

func (m *mockMailIndex) SetWatermark(timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watermark = timestamp
	return nil
}

func (m *mockMailIndex) Watermark() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watermark
}

func (m *mockMailIndex) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = nil
	m.watermark = domain.NothingIndexedTimestamp
	m.cleared = true
	return nil
}

func (m *mockMailIndex) Close() error { return nil }

// mockMailNormaliser treats the first line of the content as the subject.
type mockMailNormaliser struct{}

func (mockMailNormaliser) Normalise(_ context.Context, content []byte, uri, folder string) (*domain.Mail, error) {
	text := string(content)
	if text == "" {
		return nil, errors.New("empty message")
	}
	subject, _, _ := strings.Cut(text, "\n")
	return &domain.Mail{
		ID:         domain.IdTuple{ListID: folder, ElementID: filepath.Base(uri)},
		Subject:    subject,
		ReceivedAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func mailAt(id string, received time.Time) domain.Mail {
	return domain.Mail{
		ID:         domain.IdTuple{ListID: "inbox", ElementID: id},
		Subject:    "Mail " + id,
		ReceivedAt: received,
	}
}

func newTestIndexer(t *testing.T) (*MailIndexer, *mockMailIndex, *memory.IndexStateStore) {
	t.Helper()
	index := newMockMailIndex()
	states := memory.NewIndexStateStore()
	indexer := NewMailIndexer(memory.NewMailStore(), index, states, mockMailNormaliser{})
	require.NoError(t, indexer.Init(context.Background()))
	return indexer, index, states
}

func TestMailIndexer_StartsInitializing(t *testing.T) {
	indexer := NewMailIndexer(memory.NewMailStore(), newMockMailIndex(), memory.NewIndexStateStore(), nil)
	assert.Equal(t, domain.DefaultIndexState(), indexer.State())
}

func TestMailIndexer_Init_Defaults(t *testing.T) {
	indexer, _, states := newTestIndexer(t)

	state := indexer.State()
	assert.False(t, state.Initializing)
	assert.True(t, state.MailIndexEnabled)
	assert.Equal(t, domain.NothingIndexedTimestamp, state.CurrentMailIndexTimestamp)

	saved, err := states.LoadIndexState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state, *saved)
}

func TestMailIndexer_Init_DisabledByDefault(t *testing.T) {
	indexer := NewMailIndexer(memory.NewMailStore(), newMockMailIndex(), memory.NewIndexStateStore(), nil)
	indexer.SetEnabledByDefault(false)

	require.NoError(t, indexer.Init(context.Background()))
	assert.False(t, indexer.State().MailIndexEnabled)
}

func TestMailIndexer_Init_RestoresSavedState(t *testing.T) {
	states := memory.NewIndexStateStore()
	saved := domain.DefaultIndexState()
	saved.MailIndexEnabled = false
	saved.IndexedMailCount = 7
	saved.CurrentMailIndexTimestamp = 500
	require.NoError(t, states.SaveIndexState(context.Background(), saved))

	index := newMockMailIndex()
	index.watermark = 400
	indexer := NewMailIndexer(memory.NewMailStore(), index, states, nil)
	require.NoError(t, indexer.Init(context.Background()))

	state := indexer.State()
	assert.False(t, state.MailIndexEnabled)
	assert.Equal(t, 7, state.IndexedMailCount)
	assert.Equal(t, int64(400), state.CurrentMailIndexTimestamp, "index metadata wins")
}

func TestMailIndexer_IndexMails(t *testing.T) {
	indexer, index, _ := newTestIndexer(t)
	indexer.SetBatchSize(2)
	base := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	var progress []float64
	unsubscribe := indexer.StateValue().Subscribe(func(s domain.IndexStateInfo) {
		progress = append(progress, s.Progress)
	})
	defer unsubscribe()

	err := indexer.IndexMails(context.Background(), []domain.Mail{
		mailAt("old", base),
		mailAt("new", base.Add(72*time.Hour)),
		mailAt("mid", base.Add(24*time.Hour)),
	})
	require.NoError(t, err)

	require.Len(t, index.indexed, 3)
	assert.Equal(t, "new", index.indexed[0].ID.ElementID, "newest first")
	assert.Equal(t, "old", index.indexed[2].ID.ElementID)
	assert.Equal(t, base.UnixMilli(), index.watermark)

	state := indexer.State()
	assert.Equal(t, 3, state.IndexedMailCount)
	assert.Equal(t, base.UnixMilli(), state.CurrentMailIndexTimestamp)
	assert.Equal(t, base.UnixMilli(), state.AimedMailIndexTimestamp)
	assert.Zero(t, state.Progress)
	assert.Nil(t, state.FailedIndexingUpTo)

	// Running, after the first batch, after the second batch, idle.
	require.Len(t, progress, 4)
	assert.Greater(t, progress[0], 0.0)
	assert.InDelta(t, 66.67, progress[1], 0.01)
	assert.Equal(t, 100.0, progress[2])
	assert.Equal(t, 0.0, progress[3])
}

func TestMailIndexer_IndexMails_Disabled(t *testing.T) {
	indexer, _, _ := newTestIndexer(t)
	require.NoError(t, indexer.DisableMailIndexing(context.Background()))

	err := indexer.IndexMails(context.Background(), []domain.Mail{mailAt("m", time.Now())})
	assert.ErrorIs(t, err, domain.ErrMailIndexDisabled)
}

func TestMailIndexer_IndexMails_Failure(t *testing.T) {
	indexer, index, states := newTestIndexer(t)
	indexer.SetBatchSize(1)
	boom := errors.New("disk full")
	index.indexErr = boom
	index.failAfter = 1
	base := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	err := indexer.IndexMails(context.Background(), []domain.Mail{
		mailAt("a", base.Add(time.Hour)),
		mailAt("b", base),
	})
	require.ErrorIs(t, err, boom)

	state := indexer.State()
	require.NotNil(t, state.FailedIndexingUpTo)
	assert.Equal(t, base.UnixMilli(), *state.FailedIndexingUpTo)
	assert.Equal(t, base.Add(time.Hour).UnixMilli(), state.CurrentMailIndexTimestamp)
	assert.Equal(t, 1, state.IndexedMailCount)
	assert.Zero(t, state.Progress)

	saved, err := states.LoadIndexState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.FailedIndexingUpTo, saved.FailedIndexingUpTo)
}

func TestMailIndexer_DisableDropsIndex(t *testing.T) {
	indexer, index, _ := newTestIndexer(t)
	ctx := context.Background()
	require.NoError(t, indexer.IndexMails(ctx, []domain.Mail{mailAt("m", time.Now())}))

	require.NoError(t, indexer.DisableMailIndexing(ctx))

	assert.True(t, index.cleared)
	state := indexer.State()
	assert.False(t, state.MailIndexEnabled)
	assert.Equal(t, domain.NothingIndexedTimestamp, state.CurrentMailIndexTimestamp)
	assert.Zero(t, state.IndexedMailCount)

	require.NoError(t, indexer.EnableMailIndexing(ctx))
	assert.True(t, indexer.State().MailIndexEnabled)
}

func TestMailIndexer_ImportFiles(t *testing.T) {
	indexer, index, _ := newTestIndexer(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "1.eml")
	empty := filepath.Join(dir, "2.eml")
	require.NoError(t, os.WriteFile(good, []byte("Quarterly report\nbody"), 0o600))
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	n, err := indexer.ImportFiles(context.Background(), []string{good, empty, filepath.Join(dir, "missing.eml")}, "work")
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	require.Len(t, index.indexed, 1)
	assert.Equal(t, "Quarterly report", index.indexed[0].Subject)
	assert.Equal(t, "work", index.indexed[0].ID.ListID)
}

func TestMailIndexer_FeedsSearchModel(t *testing.T) {
	indexer, _, _ := newTestIndexer(t)
	model := NewSearchModel(&mockIndexSearch{}, nil, indexer.StateValue())

	require.NoError(t, indexer.IndexMails(context.Background(), []domain.Mail{mailAt("m", time.UnixMilli(1000))}))

	result, err := model.Search(context.Background(), mailQuery(""), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.CurrentIndexTimestamp)
}
