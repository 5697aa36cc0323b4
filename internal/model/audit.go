package model

import "time"

// AuditEvent records an action taken on an item or claim.
type AuditEvent struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Title      string    `json:"title"`
	Details    string    `json:"details,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Audit actions.
const (
	AuditItemUploaded   = "ITEM_UPLOADED"
	AuditItemApproved   = "ITEM_APPROVED"
	AuditItemRejected   = "ITEM_REJECTED"
	AuditItemClaimed    = "ITEM_CLAIMED"
	AuditItemDeleted    = "ITEM_DELETED"
	AuditClaimSubmitted = "CLAIM_SUBMITTED"
	AuditClaimApproved  = "CLAIM_APPROVED"
	AuditClaimRejected  = "CLAIM_REJECTED"
	AuditClaimDeleted   = "CLAIM_DELETED"
)

// Audit entity types.
const (
	EntityItem  = "item"
	EntityClaim = "claim"
)
