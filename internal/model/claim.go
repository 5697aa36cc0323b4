package model

import "time"

// Claim is an ownership claim filed against an approved item.
type Claim struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	ClaimantName  string    `json:"claimant_name"`
	ClaimantEmail string    `json:"claimant_email"`
	Message       string    `json:"message"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`

	// Joined field (not always populated).
	ItemTitle string `json:"item_title,omitempty"`
}

// Claim statuses.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// ValidClaimStatus reports whether s is a known claim status.
func ValidClaimStatus(s string) bool {
	switch s {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected:
		return true
	}
	return false
}
