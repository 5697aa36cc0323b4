package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/reunite/internal/model"
)

// ErrNotFound is returned when a row addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a change does not apply to the row's current state.
var ErrConflict = errors.New("conflict")

const itemColumns = `id, title, category, location, date_found, description, contact_name, contact_email,
	status, image_mime, structural_hash, color_r, color_g, color_b, created_at, updated_at`

// NewItemID returns a fresh item identifier.
func NewItemID() string {
	return "item_" + uuid.NewString()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	it := &model.Item{}
	var imageMime sql.NullString
	var r, g, b sql.NullInt64
	err := row.Scan(&it.ID, &it.Title, &it.Category, &it.Location, &it.DateFound, &it.Description,
		&it.ContactName, &it.ContactEmail, &it.Status, &imageMime, &it.StructuralHash,
		&r, &g, &b, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.ImageMIME = imageMime.String
	if r.Valid && g.Valid && b.Valid {
		it.AverageColor = &model.Color{R: uint8(r.Int64), G: uint8(g.Int64), B: uint8(b.Int64)}
	}
	return it, nil
}

func colorArgs(c *model.Color) (r, g, b any) {
	if c == nil {
		return nil, nil, nil
	}
	return int64(c.R), int64(c.G), int64(c.B)
}

// CreateItem stores a new item. An empty ID is replaced with a generated one,
// an empty status defaults to pending and a zero CreatedAt to now.
func CreateItem(ctx context.Context, db *sql.DB, it model.Item) (*model.Item, error) {
	if it.ID == "" {
		it.ID = NewItemID()
	}
	it.Status = model.NormalizeStatus(it.Status)
	if it.Status == "" {
		it.Status = model.ItemStatusPending
	}
	if !model.ValidItemStatus(it.Status) {
		return nil, fmt.Errorf("invalid item status %q", it.Status)
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}
	r, g, b := colorArgs(it.AverageColor)

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, title, category, location, date_found, description, contact_name,
		                    contact_email, status, structural_hash, color_r, color_g, color_b,
		                    created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Title, it.Category, it.Location, it.DateFound, it.Description, it.ContactName,
		it.ContactEmail, it.Status, it.StructuralHash, r, g, b, it.CreatedAt, it.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, it.ID)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	it, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return it, nil
}

// ListItems returns items newest first, optionally filtered by status.
func ListItems(ctx context.Context, db *sql.DB, status string) ([]model.Item, error) {
	if status != "" {
		return queryItems(ctx, db,
			`SELECT `+itemColumns+` FROM items WHERE status = ? ORDER BY created_at DESC`, status)
	}
	return queryItems(ctx, db, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`)
}

// ListItemsByContact returns the items reported with the given contact email.
func ListItemsByContact(ctx context.Context, db *sql.DB, email string) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items WHERE contact_email = ? COLLATE NOCASE ORDER BY created_at DESC`, email)
}

func queryItems(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// CountItemsByStatus returns the number of items in each status.
func CountItemsByStatus(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{
		model.ItemStatusPending:  0,
		model.ItemStatusApproved: 0,
		model.ItemStatusRejected: 0,
		model.ItemStatusClaimed:  0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning item count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func execOne(ctx context.Context, db *sql.DB, what, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetItemStatus moves an item to a new status.
func SetItemStatus(ctx context.Context, db *sql.DB, id, status string) error {
	status = model.NormalizeStatus(status)
	if !model.ValidItemStatus(status) {
		return fmt.Errorf("invalid item status %q", status)
	}
	return execOne(ctx, db, "setting item status",
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
}

// SetItemSignature replaces an item's structural hash and average color.
func SetItemSignature(ctx context.Context, db *sql.DB, id, hash string, c *model.Color) error {
	if !model.ValidHash(hash) {
		return fmt.Errorf("invalid structural hash")
	}
	r, g, b := colorArgs(c)
	return execOne(ctx, db, "setting item signature",
		`UPDATE items SET structural_hash = ?, color_r = ?, color_g = ?, color_b = ?, updated_at = ?
		 WHERE id = ?`,
		hash, r, g, b, time.Now().UTC(), id,
	)
}

// SetItemImageMIME records the MIME type of an image held outside the
// database. An empty mime marks the item as having no image.
func SetItemImageMIME(ctx context.Context, db *sql.DB, id, mime string) error {
	var v any
	if mime != "" {
		v = mime
	}
	return execOne(ctx, db, "setting item image type",
		`UPDATE items SET image_mime = ?, updated_at = ? WHERE id = ?`,
		v, time.Now().UTC(), id,
	)
}

// DeleteItem removes an item together with the claims filed against it.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("deleting item claims: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item delete: %w", err)
	}
	return nil
}
