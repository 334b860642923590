package model

import "time"

// DefaultDestination is used when a checkout names no destination.
const DefaultDestination = "event"

// Checkout is a quantity of an item that is out at an event, not at base.
type Checkout struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	EventID     int64     `json:"event_id"`
	Quantity    int       `json:"quantity"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ItemName   string `json:"item_name,omitempty"`
	EventLabel string `json:"event_label,omitempty"`
}

// Agenda is the overview of a single day.
type Agenda struct {
	Date           string     `json:"date"`
	Events         []Event    `json:"events"`
	Reminders      []Reminder `json:"reminders"`
	RecentFinished []Event    `json:"recent_finished"`
	Next           *Event     `json:"next,omitempty"`
	OverdueOut     int        `json:"overdue_out"`
}
