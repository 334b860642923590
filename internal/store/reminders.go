package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

// CreateReminder stores a dated note.
func CreateReminder(ctx context.Context, q db.DBTX, date, message string) (*model.Reminder, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO reminders (date, message) VALUES (?, ?)`,
		date, message,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting reminder id: %w", err)
	}

	return GetReminder(ctx, q, id)
}

// GetReminder returns a reminder by ID.
func GetReminder(ctx context.Context, q db.DBTX, id int64) (*model.Reminder, error) {
	r := &model.Reminder{}
	err := q.QueryRowContext(ctx,
		`SELECT id, date, message, created_at FROM reminders WHERE id = ?`, id,
	).Scan(&r.ID, &r.Date, &r.Message, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reminder: %w", err)
	}
	return r, nil
}

// ListReminders returns reminders, optionally only those on one date.
func ListReminders(ctx context.Context, q db.DBTX, date string) ([]model.Reminder, error) {
	query := `SELECT id, date, message, created_at FROM reminders`
	var args []any
	if date != "" {
		query += ` WHERE date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY date, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		var r model.Reminder
		if err := rows.Scan(&r.ID, &r.Date, &r.Message, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// DeleteReminder removes a reminder.
func DeleteReminder(ctx context.Context, q db.DBTX, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting reminder: %w", err)
	}
	return nil
}
