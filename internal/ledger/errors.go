package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced item, event, checkout or
	// member does not exist.
	ErrNotFound = errors.New("not found")

	// ErrHasOutstandingCheckouts is returned when deleting an item that is
	// still checked out and the caller did not ask for a cascade.
	ErrHasOutstandingCheckouts = errors.New("item has outstanding checkouts")

	// ErrEventFinalized is returned when changing a finalized event.
	ErrEventFinalized = errors.New("event is finalized")

	// ErrInvalidQuantity is returned for non-positive checkout or return quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrPrivilegeRequired is returned when deleting a finalized event
	// without privilege.
	ErrPrivilegeRequired = errors.New("privilege required")
)

// InsufficientStockError reports a checkout larger than what is at base.
type InsufficientStockError struct {
	Requested int `json:"requested"`
	Available int `json:"available"`
	Total     int `json:"total"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d of %d", e.Requested, e.Available, e.Total)
}

// OverReturnError reports a return larger than the outstanding quantity.
type OverReturnError struct {
	Requested   int `json:"requested"`
	Outstanding int `json:"outstanding"`
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("over-return: returning %d, only %d outstanding", e.Requested, e.Outstanding)
}

// FinalizeBlockedError reports which finalize gates failed. Both are set
// when both fail.
type FinalizeBlockedError struct {
	PendingItems  int  `json:"pending_items"`
	MissingPhotos bool `json:"missing_photos"`
}

func (e *FinalizeBlockedError) Error() string {
	switch {
	case e.PendingItems > 0 && e.MissingPhotos:
		return fmt.Sprintf("cannot finalize: %d checkouts still out and no photos attached", e.PendingItems)
	case e.PendingItems > 0:
		return fmt.Sprintf("cannot finalize: %d checkouts still out", e.PendingItems)
	default:
		return "cannot finalize: no photos attached"
	}
}

// QuantityConflictError reports an owned total that would fall below what is
// currently checked out.
type QuantityConflictError struct {
	Requested   int `json:"requested"`
	Outstanding int `json:"outstanding"`
}

func (e *QuantityConflictError) Error() string {
	return fmt.Sprintf("quantity %d is below the %d units checked out", e.Requested, e.Outstanding)
}
