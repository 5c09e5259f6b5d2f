package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// mailStore implements driven.MailStore.
type mailStore struct {
	db *sqlx.DB
}

var _ driven.MailStore = (*mailStore)(nil)

// mailRow is the mails table as sqlx maps it.
type mailRow struct {
	ListID     string `db:"list_id"`
	ElementID  string `db:"element_id"`
	Subject    string `db:"subject"`
	Sender     string `db:"sender"`
	Recipients string `db:"recipients"`
	Body       string `db:"body"`
	ReceivedAt int64  `db:"received_at"`
}

func (r *mailRow) toDomain() (domain.Mail, error) {
	var recipients []string
	if err := json.Unmarshal([]byte(r.Recipients), &recipients); err != nil {
		return domain.Mail{}, fmt.Errorf("unmarshaling recipients of %s/%s: %w", r.ListID, r.ElementID, err)
	}
	return domain.Mail{
		ID:         domain.IdTuple{ListID: r.ListID, ElementID: r.ElementID},
		Subject:    r.Subject,
		Sender:     r.Sender,
		Recipients: recipients,
		Body:       r.Body,
		ReceivedAt: time.UnixMilli(r.ReceivedAt).UTC(),
	}, nil
}

const mailColumns = "list_id, element_id, subject, sender, recipients, body, received_at"

// SaveMails inserts or replaces a batch of mails.
func (s *mailStore) SaveMails(ctx context.Context, mails []domain.Mail) error {
	if len(mails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageError("beginning transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR REPLACE INTO mails (`+mailColumns+`)
		VALUES (:list_id, :element_id, :subject, :sender, :recipients, :body, :received_at)`)
	if err != nil {
		return storageError("preparing mail upsert", err)
	}
	defer stmt.Close()

	for _, m := range mails {
		recipients := m.Recipients
		if recipients == nil {
			recipients = []string{}
		}
		encoded, err := json.Marshal(recipients)
		if err != nil {
			return fmt.Errorf("marshaling recipients of %s: %w", m.ID, err)
		}

		row := mailRow{
			ListID:     m.ID.ListID,
			ElementID:  m.ID.ElementID,
			Subject:    m.Subject,
			Sender:     m.Sender,
			Recipients: string(encoded),
			Body:       m.Body,
			ReceivedAt: m.ReceivedAt.UnixMilli(),
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return storageError(fmt.Sprintf("saving mail %s", m.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing mails", err)
	}
	return nil
}

// GetMail retrieves a mail by ID.
func (s *mailStore) GetMail(ctx context.Context, id domain.IdTuple) (*domain.Mail, error) {
	var row mailRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+mailColumns+" FROM mails WHERE list_id = ? AND element_id = ?",
		id.ListID, id.ElementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError(fmt.Sprintf("getting mail %s", id), err)
	}

	mail, err := row.toDomain()
	if err != nil {
		return nil, storageError("decoding mail", err)
	}
	return &mail, nil
}

// ListMails returns mails in folder, newest first. An empty folder lists
// every mail and a limit of zero or less means no limit.
func (s *mailStore) ListMails(ctx context.Context, folder string, limit int) ([]domain.Mail, error) {
	query := "SELECT " + mailColumns + " FROM mails"
	var args []any
	if folder != "" {
		query += " WHERE list_id = ?"
		args = append(args, folder)
	}
	query += " ORDER BY received_at DESC, element_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []mailRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageError("listing mails", err)
	}

	mails := make([]domain.Mail, 0, len(rows))
	for i := range rows {
		mail, err := rows[i].toDomain()
		if err != nil {
			return nil, storageError("decoding mail", err)
		}
		mails = append(mails, mail)
	}
	return mails, nil
}

// CountMails returns the number of stored mails.
func (s *mailStore) CountMails(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM mails"); err != nil {
		return 0, storageError("counting mails", err)
	}
	return count, nil
}
