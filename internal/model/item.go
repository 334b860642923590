package model

import "time"

// Item represents an equipment type tracked by quantity (not individually).
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	ImageRef  string    `json:"image_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item categories.
const (
	CategoryFurniture   = "furniture"
	CategoryStructure   = "structure"
	CategoryElectronics = "electronics"
	CategoryOther       = "other"
)

// ValidCategory reports whether c is a known item category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryFurniture, CategoryStructure, CategoryElectronics, CategoryOther:
		return true
	}
	return false
}

// Stock is the availability breakdown of a single item.
type Stock struct {
	ItemID    int64      `json:"item_id"`
	ItemName  string     `json:"item_name"`
	Total     int        `json:"total"`
	Out       int        `json:"out"`
	Available int        `json:"available"`
	Checkouts []Checkout `json:"checkouts"`
}
