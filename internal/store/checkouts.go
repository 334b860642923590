package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

const checkoutSelect = `SELECT c.id, c.item_id, c.event_id, c.quantity, c.destination, c.created_at,
        i.name AS item_name, e.name || ' | ' || e.location AS event_label
 FROM checkouts c
 JOIN items i ON i.id = c.item_id
 JOIN events e ON e.id = c.event_id`

func scanCheckout(s scanner) (*model.Checkout, error) {
	c := &model.Checkout{}
	if err := s.Scan(&c.ID, &c.ItemID, &c.EventID, &c.Quantity, &c.Destination, &c.CreatedAt,
		&c.ItemName, &c.EventLabel); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCheckout records a quantity of an item leaving base for an event.
// It does not check availability; callers go through the ledger.
func CreateCheckout(ctx context.Context, q db.DBTX, itemID, eventID int64, quantity int, destination string) (*model.Checkout, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO checkouts (item_id, event_id, quantity, destination) VALUES (?, ?, ?, ?)`,
		itemID, eventID, quantity, destination,
	)
	if err != nil {
		return nil, fmt.Errorf("creating checkout: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting checkout id: %w", err)
	}

	return GetCheckout(ctx, q, id)
}

// GetCheckout returns a checkout by ID.
func GetCheckout(ctx context.Context, q db.DBTX, id int64) (*model.Checkout, error) {
	c, err := scanCheckout(q.QueryRowContext(ctx, checkoutSelect+` WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting checkout: %w", err)
	}
	return c, nil
}

// ListCheckouts returns outstanding checkouts, optionally filtered by item or event.
func ListCheckouts(ctx context.Context, q db.DBTX, itemID, eventID int64) ([]model.Checkout, error) {
	query := checkoutSelect + ` WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND c.item_id = ?`
		args = append(args, itemID)
	}
	if eventID > 0 {
		query += ` AND c.event_id = ?`
		args = append(args, eventID)
	}

	query += ` ORDER BY e.date, c.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing checkouts: %w", err)
	}
	defer rows.Close()

	var checkouts []model.Checkout
	for rows.Next() {
		c, err := scanCheckout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning checkout: %w", err)
		}
		checkouts = append(checkouts, *c)
	}
	return checkouts, rows.Err()
}

// OutstandingForItem returns the total quantity of an item currently out.
// The sum over no rows is 0.
func OutstandingForItem(ctx context.Context, q db.DBTX, itemID int64) (int, error) {
	var out int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM checkouts WHERE item_id = ?`, itemID,
	).Scan(&out)
	if err != nil {
		return 0, fmt.Errorf("summing outstanding quantity: %w", err)
	}
	return out, nil
}

// CountForItem returns the number of checkout records referencing an item.
func CountForItem(ctx context.Context, q db.DBTX, itemID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM checkouts WHERE item_id = ?`, itemID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting item checkouts: %w", err)
	}
	return n, nil
}

// CountForEvent returns the number of checkout records still open on an event.
func CountForEvent(ctx context.Context, q db.DBTX, eventID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM checkouts WHERE event_id = ?`, eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting event checkouts: %w", err)
	}
	return n, nil
}

// CountOverdue returns the number of checkout records on events dated before the given date.
func CountOverdue(ctx context.Context, q db.DBTX, before string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM checkouts c JOIN events e ON e.id = c.event_id WHERE e.date < ?`, before,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting overdue checkouts: %w", err)
	}
	return n, nil
}

// SetCheckoutQuantity overwrites the outstanding quantity of a checkout.
func SetCheckoutQuantity(ctx context.Context, q db.DBTX, id int64, quantity int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE checkouts SET quantity = ? WHERE id = ?`, quantity, id,
	)
	if err != nil {
		return fmt.Errorf("updating checkout quantity: %w", err)
	}
	return nil
}

// DeleteCheckout removes a checkout record.
func DeleteCheckout(ctx context.Context, q db.DBTX, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM checkouts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting checkout: %w", err)
	}
	return nil
}

// DeleteCheckoutsForItem removes every checkout of an item and returns how many were removed.
func DeleteCheckoutsForItem(ctx context.Context, q db.DBTX, itemID int64) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM checkouts WHERE item_id = ?`, itemID)
	if err != nil {
		return 0, fmt.Errorf("deleting item checkouts: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// DeleteCheckoutsForEvent removes every checkout on an event and returns how many were removed.
func DeleteCheckoutsForEvent(ctx context.Context, q db.DBTX, eventID int64) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM checkouts WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, fmt.Errorf("deleting event checkouts: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
