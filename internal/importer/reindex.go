package importer

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/store"
)

// ReindexResult counts the outcome of a reindex.
type ReindexResult struct {
	Updated   int `json:"updated"`
	NoImage   int `json:"no_image"`
	Undecoded int `json:"undecoded"`
}

// Reindex recomputes full-resolution signatures from stored photos. By
// default only items without a signature or with a legacy 64-bit one are
// touched; all recomputes every item that has a photo.
func Reindex(ctx context.Context, db *sql.DB, images store.ImageStore, all bool) (*ReindexResult, error) {
	items, err := store.ListItems(ctx, db, "")
	if err != nil {
		return nil, err
	}

	res := &ReindexResult{}
	for _, it := range items {
		if !all && it.Signature() == model.SignatureFull {
			continue
		}
		if !it.HasImage() {
			res.NoImage++
			continue
		}

		data, _, err := images.GetImage(ctx, it.ID)
		if err != nil {
			return res, err
		}
		if len(data) == 0 {
			res.NoImage++
			continue
		}

		img, err := imaging.Decode(bytes.NewReader(data))
		if errors.Is(err, imaging.ErrImageDecode) {
			slog.Warn("reindex: cannot decode stored image", "item", it.ID, "error", err)
			res.Undecoded++
			continue
		}
		if err != nil {
			return res, err
		}

		hash, err := imaging.ComputeHash(img, model.FullGrid)
		if err != nil {
			return res, fmt.Errorf("hashing %s: %w", it.ID, err)
		}
		if err := store.SetItemSignature(ctx, db, it.ID, hash, imaging.SampleDominantColor(img)); err != nil {
			return res, err
		}
		res.Updated++
	}

	if err := store.SetSetting(ctx, db, store.SettingLastReindex, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return res, err
	}
	return res, nil
}
