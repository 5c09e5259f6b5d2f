package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Ensure MailIndexer implements the interface.
var _ driving.MailIndexer = (*MailIndexer)(nil)

// defaultIndexBatchSize is the number of mails stored and indexed per step.
const defaultIndexBatchSize = 100

// MailIndexer stores mails, feeds them to the full-text index and publishes
// the indexer state. It is the only writer of that state.
type MailIndexer struct {
	store      driven.MailStore
	index      driven.MailIndex
	stateStore driven.IndexStateStore
	normaliser driven.MailNormaliser

	enabledByDefault bool
	batchSize        int

	// run serialises indexing runs and state transitions.
	run   sync.Mutex
	state *observable.Value[domain.IndexStateInfo]
}

// NewMailIndexer creates an indexer. The state starts as domain.DefaultIndexState
// until Init is called.
func NewMailIndexer(
	store driven.MailStore,
	index driven.MailIndex,
	stateStore driven.IndexStateStore,
	normaliser driven.MailNormaliser,
) *MailIndexer {
	return &MailIndexer{
		store:            store,
		index:            index,
		stateStore:       stateStore,
		normaliser:       normaliser,
		enabledByDefault: true,
		batchSize:        defaultIndexBatchSize,
		state:            observable.New(domain.DefaultIndexState()),
	}
}

// SetEnabledByDefault sets whether indexing starts enabled when no state was saved yet.
func (i *MailIndexer) SetEnabledByDefault(enabled bool) {
	i.enabledByDefault = enabled
}

// SetBatchSize sets the number of mails processed per step.
func (i *MailIndexer) SetBatchSize(n int) {
	if n > 0 {
		i.batchSize = n
	}
}

// StateValue exposes the state for the search model to observe.
func (i *MailIndexer) StateValue() *observable.Value[domain.IndexStateInfo] {
	return i.state
}

// State returns the current indexer state.
func (i *MailIndexer) State() domain.IndexStateInfo {
	return i.state.Get()
}

// Init restores the persisted state and ends the initializing phase.
func (i *MailIndexer) Init(ctx context.Context) error {
	i.run.Lock()
	defer i.run.Unlock()

	state := domain.DefaultIndexState()
	saved, err := i.stateStore.LoadIndexState(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		state.MailIndexEnabled = i.enabledByDefault
		logger.Debug("No saved index state, mail indexing enabled=%t", state.MailIndexEnabled)
	case err != nil:
		return fmt.Errorf("load index state: %w", err)
	default:
		state.MailIndexEnabled = saved.MailIndexEnabled
		state.CurrentMailIndexTimestamp = saved.CurrentMailIndexTimestamp
		state.AimedMailIndexTimestamp = saved.AimedMailIndexTimestamp
		state.IndexedMailCount = saved.IndexedMailCount
		state.FailedIndexingUpTo = saved.FailedIndexingUpTo
	}

	// The index metadata wins if it disagrees with the saved state.
	if i.index != nil {
		if watermark := i.index.Watermark(); watermark != state.CurrentMailIndexTimestamp {
			logger.Debug("Index watermark %d overrides saved %d", watermark, state.CurrentMailIndexTimestamp)
			state.CurrentMailIndexTimestamp = watermark
		}
	}

	state.Initializing = false
	state.Progress = 0
	return i.commit(ctx, state)
}

// EnableMailIndexing switches indexing on.
func (i *MailIndexer) EnableMailIndexing(ctx context.Context) error {
	i.run.Lock()
	defer i.run.Unlock()

	state := i.state.Get()
	if state.MailIndexEnabled {
		return nil
	}
	state.MailIndexEnabled = true
	logger.Info("Mail indexing enabled")
	return i.commit(ctx, state)
}

// DisableMailIndexing switches indexing off and drops the index.
func (i *MailIndexer) DisableMailIndexing(ctx context.Context) error {
	i.run.Lock()
	defer i.run.Unlock()

	if err := i.index.Clear(); err != nil {
		return fmt.Errorf("clear mail index: %w", err)
	}

	state := i.state.Get()
	state.MailIndexEnabled = false
	state.Progress = 0
	state.CurrentMailIndexTimestamp = domain.NothingIndexedTimestamp
	state.AimedMailIndexTimestamp = domain.NothingIndexedTimestamp
	state.IndexedMailCount = 0
	state.FailedIndexingUpTo = nil
	logger.Info("Mail indexing disabled, index dropped")
	return i.commit(ctx, state)
}

// IndexMails stores and indexes mails, newest first.
// Returns domain.ErrIndexingInProgress if another run is active.
func (i *MailIndexer) IndexMails(ctx context.Context, mails []domain.Mail) error {
	if !i.run.TryLock() {
		return domain.ErrIndexingInProgress
	}
	defer i.run.Unlock()

	state := i.state.Get()
	if !state.MailIndexEnabled {
		return domain.ErrMailIndexDisabled
	}
	if len(mails) == 0 {
		return nil
	}

	logger.Section("Mail Indexing")
	sorted := slices.Clone(mails)
	slices.SortStableFunc(sorted, func(a, b domain.Mail) int {
		return b.ReceivedAt.Compare(a.ReceivedAt)
	})

	aimed := sorted[len(sorted)-1].ReceivedAt.UnixMilli()
	state.AimedMailIndexTimestamp = min(aimed, state.CurrentMailIndexTimestamp)
	state.FailedIndexingUpTo = nil
	state.Progress = progressPercent(0, len(sorted))
	i.state.Set(state)
	logger.Debug("Indexing %d mails down to %d", len(sorted), aimed)

	for start := 0; start < len(sorted); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			return i.fail(ctx, state, sorted[start], err)
		}

		batch := sorted[start:min(start+i.batchSize, len(sorted))]
		if err := i.store.SaveMails(ctx, batch); err != nil {
			return i.fail(ctx, state, batch[0], fmt.Errorf("save mails: %w", err))
		}
		if err := i.index.IndexMails(ctx, batch); err != nil {
			return i.fail(ctx, state, batch[0], fmt.Errorf("index mails: %w", err))
		}

		oldest := batch[len(batch)-1].ReceivedAt.UnixMilli()
		if oldest < state.CurrentMailIndexTimestamp {
			if err := i.index.SetWatermark(oldest); err != nil {
				return i.fail(ctx, state, batch[0], fmt.Errorf("set watermark: %w", err))
			}
			state.CurrentMailIndexTimestamp = oldest
		}
		state.IndexedMailCount += len(batch)
		state.Progress = progressPercent(start+len(batch), len(sorted))
		i.state.Set(state)
	}

	state.Progress = 0
	logger.Info("Indexed %d mails, %d total", len(sorted), state.IndexedMailCount)
	return i.commit(ctx, state)
}

// ImportFiles parses .eml files into folder and indexes them.
// Files that cannot be read or parsed are skipped.
func (i *MailIndexer) ImportFiles(ctx context.Context, paths []string, folder string) (int, error) {
	if i.normaliser == nil {
		return 0, fmt.Errorf("no mail normaliser: %w", domain.ErrUnsupportedType)
	}

	mails := make([]domain.Mail, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		mail, err := i.normaliser.Normalise(ctx, content, filepath.ToSlash(path), folder)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		mails = append(mails, *mail)
	}

	if err := i.IndexMails(ctx, mails); err != nil {
		return 0, err
	}
	return len(mails), nil
}

// fail records that the run stopped before indexing failedAt.
func (i *MailIndexer) fail(ctx context.Context, state domain.IndexStateInfo, failedAt domain.Mail, cause error) error {
	upTo := failedAt.ReceivedAt.UnixMilli()
	state.FailedIndexingUpTo = &upTo
	state.Progress = 0
	logger.Error("Mail indexing failed at %d: %v", upTo, cause)

	if err := i.commit(context.WithoutCancel(ctx), state); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// commit publishes and persists state.
func (i *MailIndexer) commit(ctx context.Context, state domain.IndexStateInfo) error {
	i.state.Set(state)
	if err := i.stateStore.SaveIndexState(ctx, state); err != nil {
		return fmt.Errorf("save index state: %w", err)
	}
	return nil
}

// progressPercent keeps a running index above zero so observers can tell it from idle.
func progressPercent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return max(float64(done)/float64(total)*100, 1)
}
