package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ImageStore holds item photos. The items table records whether an item has
// an image (image_mime); the bytes may live elsewhere.
type ImageStore interface {
	PutImage(ctx context.Context, itemID string, data []byte, mime string) error
	GetImage(ctx context.Context, itemID string) ([]byte, string, error)
	DeleteImage(ctx context.Context, itemID string) error
}

// DBImages keeps photos in the items table.
type DBImages struct {
	DB *sql.DB
}

// PutImage sets an item's image data.
func (s DBImages) PutImage(ctx context.Context, itemID string, data []byte, mime string) error {
	return execOne(ctx, s.DB, "setting item image",
		`UPDATE items SET image = ?, image_mime = ? WHERE id = ?`,
		data, mime, itemID,
	)
}

// GetImage returns an item's image data and MIME type. Both are empty when
// the item or its image does not exist.
func (s DBImages) GetImage(ctx context.Context, itemID string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := s.DB.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, itemID,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// DeleteImage clears an item's image. Deleting a missing image is not an error.
func (s DBImages) DeleteImage(ctx context.Context, itemID string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE items SET image = NULL, image_mime = NULL WHERE id = ?`, itemID,
	)
	if err != nil {
		return fmt.Errorf("deleting item image: %w", err)
	}
	return nil
}
