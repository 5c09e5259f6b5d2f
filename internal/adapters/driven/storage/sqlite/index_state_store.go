package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// indexStateStore implements driven.IndexStateStore as a single-row table.
type indexStateStore struct {
	db *sqlx.DB
}

var _ driven.IndexStateStore = (*indexStateStore)(nil)

type indexStateRow struct {
	MailIndexEnabled          int           `db:"mail_index_enabled"`
	CurrentMailIndexTimestamp int64         `db:"current_mail_index_timestamp"`
	AimedMailIndexTimestamp   int64         `db:"aimed_mail_index_timestamp"`
	IndexedMailCount          int           `db:"indexed_mail_count"`
	FailedIndexingUpTo        sql.NullInt64 `db:"failed_indexing_up_to"`
}

// LoadIndexState returns the saved state or domain.ErrNotFound.
// Initializing and Progress are runtime values and always come back zero.
func (s *indexStateStore) LoadIndexState(ctx context.Context) (*domain.IndexStateInfo, error) {
	var row indexStateRow
	err := s.db.GetContext(ctx, &row, `
		SELECT mail_index_enabled, current_mail_index_timestamp, aimed_mail_index_timestamp,
			indexed_mail_count, failed_indexing_up_to
		FROM index_state WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError("loading index state", err)
	}

	state := &domain.IndexStateInfo{
		MailIndexEnabled:          row.MailIndexEnabled != 0,
		CurrentMailIndexTimestamp: row.CurrentMailIndexTimestamp,
		AimedMailIndexTimestamp:   row.AimedMailIndexTimestamp,
		IndexedMailCount:          row.IndexedMailCount,
	}
	if row.FailedIndexingUpTo.Valid {
		upTo := row.FailedIndexingUpTo.Int64
		state.FailedIndexingUpTo = &upTo
	}
	return state, nil
}

// SaveIndexState replaces the saved state.
func (s *indexStateStore) SaveIndexState(ctx context.Context, state domain.IndexStateInfo) error {
	var failed sql.NullInt64
	if state.FailedIndexingUpTo != nil {
		failed = sql.NullInt64{Int64: *state.FailedIndexingUpTo, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_state (id, mail_index_enabled, current_mail_index_timestamp,
			aimed_mail_index_timestamp, indexed_mail_count, failed_indexing_up_to, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mail_index_enabled = excluded.mail_index_enabled,
			current_mail_index_timestamp = excluded.current_mail_index_timestamp,
			aimed_mail_index_timestamp = excluded.aimed_mail_index_timestamp,
			indexed_mail_count = excluded.indexed_mail_count,
			failed_indexing_up_to = excluded.failed_indexing_up_to,
			updated_at = excluded.updated_at
	`, boolToInt(state.MailIndexEnabled), state.CurrentMailIndexTimestamp,
		state.AimedMailIndexTimestamp, state.IndexedMailCount, failed, time.Now().UnixMilli())
	if err != nil {
		return storageError("saving index state", err)
	}
	return nil
}
