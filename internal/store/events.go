package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

const eventCols = `id, name, location, date, status, created_at, updated_at`

func scanEvent(s scanner) (*model.Event, error) {
	e := &model.Event{}
	if err := s.Scan(&e.ID, &e.Name, &e.Location, &e.Date, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func queryEvents(ctx context.Context, q db.DBTX, query string, args ...any) ([]model.Event, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CreateEvent creates a scheduled event.
func CreateEvent(ctx context.Context, q db.DBTX, name, location, date string) (*model.Event, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO events (name, location, date, status) VALUES (?, ?, ?, ?)`,
		name, location, date, model.EventScheduled,
	)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting event id: %w", err)
	}

	return GetEvent(ctx, q, id)
}

// GetEvent returns an event by ID without its roster.
func GetEvent(ctx context.Context, q db.DBTX, id int64) (*model.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

// ListEvents returns events ordered by date, optionally filtered by status.
func ListEvents(ctx context.Context, q db.DBTX, status model.EventStatus) ([]model.Event, error) {
	query := `SELECT ` + eventCols + ` FROM events`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY date, id`

	events, err := queryEvents(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// ListEventsOn returns the events scheduled on the given date.
func ListEventsOn(ctx context.Context, q db.DBTX, date string) ([]model.Event, error) {
	events, err := queryEvents(ctx, q,
		`SELECT `+eventCols+` FROM events WHERE date = ? ORDER BY id`, date,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events on %s: %w", date, err)
	}
	return events, nil
}

// RecentFinalized returns the latest finalized events, newest first.
func RecentFinalized(ctx context.Context, q db.DBTX, limit int) ([]model.Event, error) {
	events, err := queryEvents(ctx, q,
		`SELECT `+eventCols+` FROM events WHERE status = ? ORDER BY date DESC, id DESC LIMIT ?`,
		model.EventFinalized, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent finalized events: %w", err)
	}
	return events, nil
}

// NextEvent returns the earliest non-finalized event on or after the given
// date, or nil if there is none.
func NextEvent(ctx context.Context, q db.DBTX, from string) (*model.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events
		 WHERE status != ? AND date >= ?
		 ORDER BY date, id LIMIT 1`,
		model.EventFinalized, from,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting next event: %w", err)
	}
	return e, nil
}

// SetEventStatus stores a new status for an event.
func SetEventStatus(ctx context.Context, q db.DBTX, id int64, status model.EventStatus) error {
	_, err := q.ExecContext(ctx,
		`UPDATE events SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("setting event status: %w", err)
	}
	return nil
}

// DeleteEvent removes an event and its roster. Checkouts and album entries
// must be removed first.
func DeleteEvent(ctx context.Context, q db.DBTX, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM event_members WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("deleting event roster: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

// GetRoster returns the active members assigned to an event, in roster order.
func GetRoster(ctx context.Context, q db.DBTX, eventID int64) ([]model.Member, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT m.id, m.name, m.role, m.created_at, m.deleted_at
		 FROM event_members em
		 JOIN members m ON m.id = em.member_id
		 WHERE em.event_id = ? AND m.deleted_at IS NULL
		 ORDER BY em.position`, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting roster: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt, &m.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning roster member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ReplaceRoster replaces an event's roster with memberIDs in the given order.
func ReplaceRoster(ctx context.Context, q db.DBTX, eventID int64, memberIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM event_members WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clearing roster: %w", err)
	}
	for i, id := range memberIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO event_members (event_id, member_id, position) VALUES (?, ?, ?)`,
			eventID, id, i,
		); err != nil {
			return fmt.Errorf("adding member %d to roster: %w", id, err)
		}
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE events SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, eventID,
	); err != nil {
		return fmt.Errorf("touching event: %w", err)
	}
	return nil
}
