package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/reunite/internal/model"
)

const claimColumns = `c.id, c.item_id, c.claimant_name, c.claimant_email, c.message, c.status, c.created_at,
	COALESCE(i.title, '')`

const claimFrom = ` FROM claims c LEFT JOIN items i ON i.id = c.item_id`

// NewClaimID returns a fresh claim identifier.
func NewClaimID() string {
	return "claim_" + uuid.NewString()
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	c := &model.Claim{}
	err := row.Scan(&c.ID, &c.ItemID, &c.ClaimantName, &c.ClaimantEmail, &c.Message, &c.Status,
		&c.CreatedAt, &c.ItemTitle)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateClaim files a pending claim against an item.
func CreateClaim(ctx context.Context, db *sql.DB, itemID, name, email, message string) (*model.Claim, error) {
	return InsertClaim(ctx, db, model.Claim{
		ItemID:        itemID,
		ClaimantName:  name,
		ClaimantEmail: email,
		Message:       message,
	})
}

// InsertClaim stores c as given, filling in a missing ID, status or
// creation time.
func InsertClaim(ctx context.Context, db *sql.DB, c model.Claim) (*model.Claim, error) {
	if c.ID == "" {
		c.ID = NewClaimID()
	}
	c.Status = model.NormalizeStatus(c.Status)
	if c.Status == "" {
		c.Status = model.ClaimStatusPending
	}
	if !model.ValidClaimStatus(c.Status) {
		return nil, fmt.Errorf("invalid claim status %q", c.Status)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO claims (id, item_id, claimant_name, claimant_email, message, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ItemID, c.ClaimantName, c.ClaimantEmail, c.Message, c.Status, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}
	return GetClaim(ctx, db, c.ID)
}

// GetClaim returns a claim by ID, or nil if it does not exist.
func GetClaim(ctx context.Context, db *sql.DB, id string) (*model.Claim, error) {
	c, err := scanClaim(db.QueryRowContext(ctx,
		`SELECT `+claimColumns+claimFrom+` WHERE c.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// ListClaims returns claims newest first, optionally filtered by status.
func ListClaims(ctx context.Context, db *sql.DB, status string) ([]model.Claim, error) {
	if status != "" {
		return queryClaims(ctx, db,
			`SELECT `+claimColumns+claimFrom+` WHERE c.status = ? ORDER BY c.created_at DESC`, status)
	}
	return queryClaims(ctx, db, `SELECT `+claimColumns+claimFrom+` ORDER BY c.created_at DESC`)
}

// ListClaimsByEmail returns the claims filed with the given claimant email.
func ListClaimsByEmail(ctx context.Context, db *sql.DB, email string) ([]model.Claim, error) {
	return queryClaims(ctx, db,
		`SELECT `+claimColumns+claimFrom+` WHERE c.claimant_email = ? COLLATE NOCASE ORDER BY c.created_at DESC`, email)
}

func queryClaims(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	claims := []model.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// RejectClaim marks a claim rejected.
func RejectClaim(ctx context.Context, db *sql.DB, id string) error {
	return execOne(ctx, db, "rejecting claim",
		`UPDATE claims SET status = ? WHERE id = ?`, model.ClaimStatusRejected, id,
	)
}

// ApproveClaim marks a claim approved and its item claimed in a single
// transaction. It returns ErrConflict unless the item is currently approved
// and no other claim on it has been approved.
func ApproveClaim(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID string
	err = tx.QueryRowContext(ctx, `SELECT item_id FROM claims WHERE id = ?`, id).Scan(&itemID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting claim: %w", err)
	}

	var approved bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM claims WHERE item_id = ? AND status = ? AND id != ?)`,
		itemID, model.ClaimStatusApproved, id,
	).Scan(&approved); err != nil {
		return fmt.Errorf("checking approved claims: %w", err)
	}
	if approved {
		return fmt.Errorf("%w: item %s already has an approved claim", ErrConflict, itemID)
	}

	// The status guard makes the item update the point where concurrent
	// approvals serialize.
	res, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		model.ItemStatusClaimed, time.Now().UTC(), itemID, model.ItemStatusApproved,
	)
	if err != nil {
		return fmt.Errorf("marking item claimed: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("marking item claimed: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: item %s is not approved", ErrConflict, itemID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE claims SET status = ? WHERE id = ?`, model.ClaimStatusApproved, id,
	); err != nil {
		return fmt.Errorf("approving claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing claim approval: %w", err)
	}
	return nil
}

// DeleteClaim removes a claim.
func DeleteClaim(ctx context.Context, db *sql.DB, id string) error {
	return execOne(ctx, db, "deleting claim", `DELETE FROM claims WHERE id = ?`, id)
}
