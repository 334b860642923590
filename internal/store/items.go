package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

const itemCols = `id, name, category, quantity, image_ref, created_at, updated_at`

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var imageRef sql.NullString
	if err := s.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &imageRef, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.ImageRef = imageRef.String
	return item, nil
}

// CreateItem registers a new item with its total owned quantity.
func CreateItem(ctx context.Context, q db.DBTX, name, category string, quantity int) (*model.Item, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO items (name, category, quantity) VALUES (?, ?, ?)`,
		name, category, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, q db.DBTX, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items, optionally filtered by category.
func ListItems(ctx context.Context, q db.DBTX, category string) ([]model.Item, error) {
	query := `SELECT ` + itemCols + ` FROM items`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's name, category and total owned quantity.
func UpdateItem(ctx context.Context, q db.DBTX, id int64, name, category string, quantity int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, category, quantity, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image reference. An empty ref clears it.
// It reports false when no item has the given ID.
func SetItemImage(ctx context.Context, q db.DBTX, id int64, ref string) (bool, error) {
	var v sql.NullString
	if ref != "" {
		v = sql.NullString{String: ref, Valid: true}
	}
	result, err := q.ExecContext(ctx,
		`UPDATE items SET image_ref = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		v, id,
	)
	if err != nil {
		return false, fmt.Errorf("setting item image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking item image update: %w", err)
	}
	return n > 0, nil
}

// DeleteItem permanently removes an item. Checkouts referencing it must be
// removed first.
func DeleteItem(ctx context.Context, q db.DBTX, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
