// Package ledger keeps item availability consistent with checkout records.
//
// For every item the sum of outstanding checkout quantities never exceeds the
// owned quantity. Every mutation runs in a single transaction; the database
// handle is expected to be opened with db.Open, which limits the pool to one
// connection and so serializes ledger writes within the process. Only one
// process may own the database file.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/model"
	"github.com/erazemk/montaza/internal/store"
)

// Service is the inventory ledger.
type Service struct {
	db *sql.DB
}

// New creates a ledger backed by the given database.
func New(database *sql.DB) *Service {
	return &Service{db: database}
}

// ReturnResult tells a caller whether a return closed the checkout.
type ReturnResult struct {
	Full      bool `json:"full"`
	Remaining int  `json:"remaining"`
}

// GetItem returns an item or ErrNotFound.
func (s *Service) GetItem(ctx context.Context, itemID int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return item, nil
}

// Available returns the owned quantity of an item minus everything checked out.
func (s *Service) Available(ctx context.Context, itemID int64) (int, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	out, err := store.OutstandingForItem(ctx, s.db, itemID)
	if err != nil {
		return 0, err
	}
	return item.Quantity - out, nil
}

// Stock returns where an item is: at base, and per event.
func (s *Service) Stock(ctx context.Context, itemID int64) (*model.Stock, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	checkouts, err := store.ListCheckouts(ctx, s.db, itemID, 0)
	if err != nil {
		return nil, err
	}

	st := &model.Stock{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Total:     item.Quantity,
		Checkouts: checkouts,
	}
	if st.Checkouts == nil {
		st.Checkouts = []model.Checkout{}
	}
	for _, c := range checkouts {
		st.Out += c.Quantity
	}
	st.Available = st.Total - st.Out
	return st, nil
}

// RecordCheckout moves quantity units of an item from base to an event.
// Availability is read in the same transaction as the insert.
func (s *Service) RecordCheckout(ctx context.Context, itemID, eventID int64, quantity int, destination string) (*model.Checkout, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if destination == "" {
		destination = model.DefaultDestination
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	if _, err := openEvent(ctx, tx, eventID); err != nil {
		return nil, err
	}

	out, err := store.OutstandingForItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	available := item.Quantity - out
	if quantity > available {
		return nil, &InsufficientStockError{
			Requested: quantity,
			Available: available,
			Total:     item.Quantity,
		}
	}

	c, err := store.CreateCheckout(ctx, tx, itemID, eventID, quantity, destination)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing checkout: %w", err)
	}
	return c, nil
}

// RecordReturn brings quantity units of a checkout back to base. Returning the
// whole outstanding amount removes the checkout.
func (s *Service) RecordReturn(ctx context.Context, checkoutID int64, quantity int) (ReturnResult, error) {
	if quantity <= 0 {
		return ReturnResult{}, ErrInvalidQuantity
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ReturnResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := store.GetCheckout(ctx, tx, checkoutID)
	if err != nil {
		return ReturnResult{}, err
	}
	if c == nil {
		return ReturnResult{}, fmt.Errorf("checkout %d: %w", checkoutID, ErrNotFound)
	}

	if quantity > c.Quantity {
		return ReturnResult{}, &OverReturnError{Requested: quantity, Outstanding: c.Quantity}
	}

	var res ReturnResult
	if quantity == c.Quantity {
		if err := store.DeleteCheckout(ctx, tx, checkoutID); err != nil {
			return ReturnResult{}, err
		}
		res.Full = true
	} else {
		res.Remaining = c.Quantity - quantity
		if err := store.SetCheckoutQuantity(ctx, tx, checkoutID, res.Remaining); err != nil {
			return ReturnResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ReturnResult{}, fmt.Errorf("committing return: %w", err)
	}
	return res, nil
}

// CanFinalizeEvent returns nil when an event has nothing checked out and at
// least one photo, or a *FinalizeBlockedError naming the failed gates.
func (s *Service) CanFinalizeEvent(ctx context.Context, eventID int64) error {
	e, err := store.GetEvent(ctx, s.db, eventID)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return finalizeGate(ctx, s.db, eventID)
}

func finalizeGate(ctx context.Context, q db.DBTX, eventID int64) error {
	pending, err := store.CountForEvent(ctx, q, eventID)
	if err != nil {
		return err
	}
	photos, err := store.CountAlbum(ctx, q, eventID)
	if err != nil {
		return err
	}
	if pending > 0 || photos == 0 {
		return &FinalizeBlockedError{PendingItems: pending, MissingPhotos: photos == 0}
	}
	return nil
}

// SetEventStatus moves an event to a new status. Scheduled and in-progress
// may be swapped freely; finalizing goes through the finalize gate and is
// terminal.
func (s *Service) SetEventStatus(ctx context.Context, eventID int64, status model.EventStatus) (*model.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := openEvent(ctx, tx, eventID); err != nil {
		return nil, err
	}

	switch status {
	case model.EventScheduled, model.EventInProgress:
	case model.EventFinalized:
		if err := finalizeGate(ctx, tx, eventID); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown event status %q", status)
	}

	if err := store.SetEventStatus(ctx, tx, eventID, status); err != nil {
		return nil, err
	}
	e, err := store.GetEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}
	return e, nil
}

// UpdateRoster replaces the crew assigned to an event. Every member must be
// active; repeated IDs keep their first position.
func (s *Service) UpdateRoster(ctx context.Context, eventID int64, memberIDs []int64) ([]model.Member, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := openEvent(ctx, tx, eventID); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(memberIDs))
	ids := make([]int64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		m, err := store.GetMember(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if m == nil || m.DeletedAt != nil {
			return nil, fmt.Errorf("member %d: %w", id, ErrNotFound)
		}
		ids = append(ids, id)
	}

	if err := store.ReplaceRoster(ctx, tx, eventID, ids); err != nil {
		return nil, err
	}
	roster, err := store.GetRoster(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing roster: %w", err)
	}
	if roster == nil {
		roster = []model.Member{}
	}
	return roster, nil
}

// AttachPhoto adds a stored photo to an event's album.
func (s *Service) AttachPhoto(ctx context.Context, eventID int64, blobRef string) (*model.AlbumEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := openEvent(ctx, tx, eventID); err != nil {
		return nil, err
	}

	a, err := store.AddAlbumEntry(ctx, tx, eventID, blobRef)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing photo: %w", err)
	}
	return a, nil
}

// UpdateItem changes an item. The owned quantity may not drop below what is
// currently checked out.
func (s *Service) UpdateItem(ctx context.Context, itemID int64, name, category string, quantity int) (*model.Item, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	out, err := store.OutstandingForItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if quantity < out {
		return nil, &QuantityConflictError{Requested: quantity, Outstanding: out}
	}

	if err := store.UpdateItem(ctx, tx, itemID, name, category, quantity); err != nil {
		return nil, err
	}
	item, err = store.GetItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}
	return item, nil
}

// SetItemImage replaces an item's image reference and returns the previous
// one so the caller can drop its blob.
func (s *Service) SetItemImage(ctx context.Context, itemID int64, ref string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItem(ctx, tx, itemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	ok, err := store.SetItemImage(ctx, tx, itemID, ref)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing item image: %w", err)
	}
	return item.ImageRef, nil
}

// DeleteItem removes an item. If it is still checked out the call fails with
// ErrHasOutstandingCheckouts unless cascade is set, in which case its
// checkouts are deleted first. The item's image ref, if any, is returned so
// the caller can remove the file.
func (s *Service) DeleteItem(ctx context.Context, itemID int64, cascade bool) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItem(ctx, tx, itemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	n, err := store.CountForItem(ctx, tx, itemID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		if !cascade {
			return "", ErrHasOutstandingCheckouts
		}
		if _, err := store.DeleteCheckoutsForItem(ctx, tx, itemID); err != nil {
			return "", err
		}
	}

	if err := store.DeleteItem(ctx, tx, itemID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing item delete: %w", err)
	}
	return item.ImageRef, nil
}

// DeleteEvent removes an event with its checkouts, album and roster.
// Finalized events can only be deleted when privileged is set. The album's
// blob refs are returned so the caller can remove the files.
func (s *Service) DeleteEvent(ctx context.Context, eventID int64, privileged bool) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := store.GetEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	switch e.Status {
	case model.EventScheduled, model.EventInProgress:
	case model.EventFinalized:
		if !privileged {
			return nil, ErrPrivilegeRequired
		}
	default:
		return nil, fmt.Errorf("event %d has unknown status %q", eventID, e.Status)
	}

	album, err := store.ListAlbum(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(album))
	for _, a := range album {
		refs = append(refs, a.BlobRef)
	}

	if _, err := store.DeleteCheckoutsForEvent(ctx, tx, eventID); err != nil {
		return nil, err
	}
	if err := store.DeleteAlbum(ctx, tx, eventID); err != nil {
		return nil, err
	}
	if err := store.DeleteEvent(ctx, tx, eventID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing event delete: %w", err)
	}
	return refs, nil
}

// openEvent loads an event that may still be changed: it must exist and not
// be finalized.
func openEvent(ctx context.Context, q db.DBTX, eventID int64) (*model.Event, error) {
	e, err := store.GetEvent(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	switch e.Status {
	case model.EventScheduled, model.EventInProgress:
		return e, nil
	case model.EventFinalized:
		return nil, ErrEventFinalized
	}
	return nil, fmt.Errorf("event %d has unknown status %q", eventID, e.Status)
}
