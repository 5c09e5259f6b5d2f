package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// eventStore implements driven.EventStore.
type eventStore struct {
	db *sqlx.DB
}

var _ driven.EventStore = (*eventStore)(nil)

// eventRow is the calendar_events table as sqlx maps it.
type eventRow struct {
	ListID          string         `db:"list_id"`
	ElementID       string         `db:"element_id"`
	UID             string         `db:"uid"`
	Summary         string         `db:"summary"`
	Description     string         `db:"description"`
	Location        string         `db:"location"`
	StartMs         int64          `db:"start_ms"`
	EndMs           int64          `db:"end_ms"`
	TimeZone        string         `db:"time_zone"`
	AllDay          int            `db:"all_day"`
	RepeatFrequency sql.NullString `db:"repeat_frequency"`
	RepeatInterval  int            `db:"repeat_interval"`
	RepeatEndMs     sql.NullInt64  `db:"repeat_end_ms"`
}

const eventColumns = `list_id, element_id, uid, summary, description, location,
	start_ms, end_ms, time_zone, all_day, repeat_frequency, repeat_interval, repeat_end_ms`

func newEventRow(e *domain.CalendarEvent) eventRow {
	row := eventRow{
		ListID:      e.ID.ListID,
		ElementID:   e.ID.ElementID,
		UID:         e.UID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		StartMs:     e.StartTime.UnixMilli(),
		EndMs:       e.EndTime.UnixMilli(),
		TimeZone:    e.StartTime.Location().String(),
		AllDay:      boolToInt(e.AllDay),
	}
	if r := e.RepeatRule; r != nil {
		row.RepeatFrequency = sql.NullString{String: string(r.Frequency), Valid: true}
		row.RepeatInterval = r.Interval
		if r.EndTime != nil {
			row.RepeatEndMs = sql.NullInt64{Int64: r.EndTime.UnixMilli(), Valid: true}
		}
	}
	return row
}

// toDomain restores the event in the zone it was saved in, so series expand
// across daylight saving changes the way they were authored.
func (r *eventRow) toDomain() domain.CalendarEvent {
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	event := domain.CalendarEvent{
		ID:          domain.IdTuple{ListID: r.ListID, ElementID: r.ElementID},
		UID:         r.UID,
		Summary:     r.Summary,
		Description: r.Description,
		Location:    r.Location,
		StartTime:   time.UnixMilli(r.StartMs).In(loc),
		EndTime:     time.UnixMilli(r.EndMs).In(loc),
		AllDay:      r.AllDay != 0,
	}
	if r.RepeatFrequency.Valid {
		event.RepeatRule = &domain.RepeatRule{
			Frequency: domain.RepeatFrequency(r.RepeatFrequency.String),
			Interval:  r.RepeatInterval,
		}
		if r.RepeatEndMs.Valid {
			end := time.UnixMilli(r.RepeatEndMs.Int64).In(loc)
			event.RepeatRule.EndTime = &end
		}
	}
	return event
}

// SaveEvents inserts or replaces events.
func (s *eventStore) SaveEvents(ctx context.Context, events []domain.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageError("beginning transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR REPLACE INTO calendar_events (`+eventColumns+`)
		VALUES (:list_id, :element_id, :uid, :summary, :description, :location,
			:start_ms, :end_ms, :time_zone, :all_day, :repeat_frequency, :repeat_interval, :repeat_end_ms)`)
	if err != nil {
		return storageError("preparing event upsert", err)
	}
	defer stmt.Close()

	for i := range events {
		if _, err := stmt.ExecContext(ctx, newEventRow(&events[i])); err != nil {
			return storageError(fmt.Sprintf("saving event %s", events[i].ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing events", err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *eventStore) GetEvent(ctx context.Context, id domain.IdTuple) (*domain.CalendarEvent, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+eventColumns+" FROM calendar_events WHERE list_id = ? AND element_id = ?",
		id.ListID, id.ElementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageError(fmt.Sprintf("getting event %s", id), err)
	}

	event := row.toDomain()
	return &event, nil
}

// DeleteEvent removes an event.
func (s *eventStore) DeleteEvent(ctx context.Context, id domain.IdTuple) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM calendar_events WHERE list_id = ? AND element_id = ?",
		id.ListID, id.ElementID)
	if err != nil {
		return storageError(fmt.Sprintf("deleting event %s", id), err)
	}
	return nil
}

// ListEvents returns the events that may occur within [from, to), ordered by
// start time. The predicate matches domain.CalendarEvent.MayOccurWithin.
func (s *eventStore) ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	query, args, err := sqlx.Named(`
		SELECT `+eventColumns+` FROM calendar_events
		WHERE start_ms < :to AND (
			(repeat_frequency IS NOT NULL AND (repeat_end_ms IS NULL OR repeat_end_ms >= :from))
			OR (repeat_frequency IS NULL AND end_ms > start_ms AND end_ms > :from)
			OR (repeat_frequency IS NULL AND end_ms <= start_ms AND start_ms >= :from)
		)
		ORDER BY start_ms, list_id, element_id`,
		map[string]any{"from": from.UnixMilli(), "to": to.UnixMilli()})
	if err != nil {
		return nil, storageError("building event query", err)
	}

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, storageError("listing events", err)
	}

	events := make([]domain.CalendarEvent, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toDomain())
	}
	return events, nil
}

// CountEvents returns the number of stored events.
func (s *eventStore) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM calendar_events"); err != nil {
		return 0, storageError("counting events", err)
	}
	return count, nil
}
