package model

import (
	"strings"
	"time"
)

// Item is a found item reported to the catalog.
type Item struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	Location       string    `json:"location"`
	DateFound      string    `json:"date_found"`
	Description    string    `json:"description,omitempty"`
	ContactName    string    `json:"contact_name"`
	ContactEmail   string    `json:"contact_email"`
	Status         string    `json:"status"`
	ImageMIME      string    `json:"image_mime,omitempty"`
	StructuralHash string    `json:"dhash,omitempty"`
	AverageColor   *Color    `json:"color,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Item statuses.
const (
	ItemStatusPending  = "pending"
	ItemStatusApproved = "approved"
	ItemStatusRejected = "rejected"
	ItemStatusClaimed  = "claimed"
)

// DateLayout is the calendar date format used for DateFound.
const DateLayout = "2006-01-02"

// Known categories. Anything else is a custom value entered under "Other".
var Categories = []string{
	"Electronics",
	"Clothing",
	"Accessories",
	"Bags",
	"Keys",
	"Documents",
	"Other",
}

// IsKnownCategory reports whether c is one of the fixed categories.
func IsKnownCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeStatus trims and lower-cases a status value.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidItemStatus reports whether s is a known item status.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected, ItemStatusClaimed:
		return true
	}
	return false
}

// IsApproved reports whether the item is eligible for browse, search and matching.
func (it *Item) IsApproved() bool {
	return NormalizeStatus(it.Status) == ItemStatusApproved
}

// HasImage reports whether an image is stored for the item.
func (it *Item) HasImage() bool {
	return it.ImageMIME != ""
}

// Signature returns the kind of structural hash the item carries.
func (it *Item) Signature() SignatureKind {
	return KindOf(it.StructuralHash)
}
