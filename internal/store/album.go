package store

import (
	"context"
	"fmt"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

// AddAlbumEntry attaches a stored photo to an event.
func AddAlbumEntry(ctx context.Context, q db.DBTX, eventID int64, blobRef string) (*model.AlbumEntry, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO album_entries (event_id, blob_ref) VALUES (?, ?)`,
		eventID, blobRef,
	)
	if err != nil {
		return nil, fmt.Errorf("adding album entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting album entry id: %w", err)
	}

	a := &model.AlbumEntry{}
	err = q.QueryRowContext(ctx,
		`SELECT id, event_id, blob_ref, created_at FROM album_entries WHERE id = ?`, id,
	).Scan(&a.ID, &a.EventID, &a.BlobRef, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting album entry: %w", err)
	}
	return a, nil
}

// ListAlbum returns the photos attached to an event, oldest first.
func ListAlbum(ctx context.Context, q db.DBTX, eventID int64) ([]model.AlbumEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, event_id, blob_ref, created_at
		 FROM album_entries WHERE event_id = ? ORDER BY id`, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing album: %w", err)
	}
	defer rows.Close()

	var entries []model.AlbumEntry
	for rows.Next() {
		var a model.AlbumEntry
		if err := rows.Scan(&a.ID, &a.EventID, &a.BlobRef, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning album entry: %w", err)
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// CountAlbum returns the number of photos attached to an event.
func CountAlbum(ctx context.Context, q db.DBTX, eventID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM album_entries WHERE event_id = ?`, eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting album entries: %w", err)
	}
	return n, nil
}

// DeleteAlbum removes all album entries of an event.
func DeleteAlbum(ctx context.Context, q db.DBTX, eventID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM album_entries WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("deleting album: %w", err)
	}
	return nil
}
