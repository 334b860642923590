package model

import (
	"fmt"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

// Event statuses. Finalized is terminal.
const (
	EventScheduled  EventStatus = "scheduled"
	EventInProgress EventStatus = "in_progress"
	EventFinalized  EventStatus = "finalized"
)

// ParseEventStatus converts s into an EventStatus.
func ParseEventStatus(s string) (EventStatus, error) {
	switch st := EventStatus(s); st {
	case EventScheduled, EventInProgress, EventFinalized:
		return st, nil
	}
	return "", fmt.Errorf("unknown event status %q", s)
}

// DateLayout is the layout of event and reminder dates.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a calendar date in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Event represents an assembly job at some location on a given date.
type Event struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Location  string      `json:"location"`
	Date      string      `json:"date"`
	Status    EventStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Populated by detail reads only.
	Roster []Member `json:"roster,omitempty"`
}

// Label is the display label of an event.
func (e *Event) Label() string {
	return e.Name + " | " + e.Location
}

// AlbumEntry is a photo attached to an event.
type AlbumEntry struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	BlobRef   string    `json:"blob_ref"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is a dated free-text note.
type Reminder struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
