package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
)

// CreateMember adds a crew member. Names are unique among active members.
func CreateMember(ctx context.Context, q db.DBTX, name, role string) (*model.Member, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO members (name, role) VALUES (?, ?)`,
		name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating member: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting member id: %w", err)
	}

	return GetMember(ctx, q, id)
}

// GetMember returns a member by ID (including removed members).
func GetMember(ctx context.Context, q db.DBTX, id int64) (*model.Member, error) {
	m := &model.Member{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, role, created_at, deleted_at FROM members WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt, &m.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting member: %w", err)
	}
	return m, nil
}

// GetMemberByName returns the active member with the given name.
func GetMemberByName(ctx context.Context, q db.DBTX, name string) (*model.Member, error) {
	m := &model.Member{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, role, created_at, deleted_at
		 FROM members WHERE name = ? AND deleted_at IS NULL`, name,
	).Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt, &m.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting member by name: %w", err)
	}
	return m, nil
}

// ListMembers returns all active members ordered by name.
func ListMembers(ctx context.Context, q db.DBTX) ([]model.Member, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, role, created_at, deleted_at
		 FROM members WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.CreatedAt, &m.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// DeleteMember soft-deletes a member. Removed members drop out of every
// roster read but their name becomes free for reuse.
func DeleteMember(ctx context.Context, q db.DBTX, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE members SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}
	return nil
}
