// Package importer loads catalog snapshots exported by the previous
// table-store deployment and upgrades stored signatures.
package importer

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/store"
)

// ErrInvalidExport is returned when the input is not a JSON export.
var ErrInvalidExport = errors.New("invalid export")

// Options control an import.
type Options struct {
	// Images receives decoded photos. Nil drops embedded images.
	Images store.ImageStore
	// Rehash recomputes signatures from embedded images even when the
	// record already carries one.
	Rehash       bool
	MaxDimension int
}

// Report summarizes an import.
type Report struct {
	Items    int      `json:"items"`
	Claims   int      `json:"claims"`
	Images   int      `json:"images"`
	Rehashed int      `json:"rehashed"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

func (r *Report) problem(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Warn("import", "problem", msg)
	r.Problems = append(r.Problems, msg)
}

// Import reads an export and inserts its items and claims. The export is
// either an array of items or an object with "items" and "claims" arrays.
// Records whose ID already exists are skipped.
func Import(ctx context.Context, db *sql.DB, data []byte, opts Options) (*Report, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidExport)
	}
	root := gjson.ParseBytes(data)

	var items, claims gjson.Result
	switch {
	case root.IsArray():
		items = root
	case root.IsObject():
		items = root.Get("items")
		claims = root.Get("claims")
	default:
		return nil, fmt.Errorf("%w: expected an array or object", ErrInvalidExport)
	}

	rep := &Report{}
	var err error
	items.ForEach(func(_, v gjson.Result) bool {
		err = importItem(ctx, db, v, opts, rep)
		return err == nil
	})
	if err != nil {
		return rep, err
	}

	claims.ForEach(func(_, v gjson.Result) bool {
		err = importClaim(ctx, db, v, rep)
		return err == nil
	})
	return rep, err
}

func importItem(ctx context.Context, db *sql.DB, v gjson.Result, opts Options, rep *Report) error {
	it := model.Item{
		ID:             v.Get("id").String(),
		Title:          strings.TrimSpace(v.Get("title").String()),
		Category:       v.Get("category").String(),
		Location:       v.Get("location").String(),
		DateFound:      v.Get("date_found").String(),
		Description:    v.Get("description").String(),
		ContactName:    v.Get("contact_name").String(),
		ContactEmail:   v.Get("contact_email").String(),
		Status:         model.NormalizeStatus(v.Get("status").String()),
		StructuralHash: v.Get("dhash").String(),
		CreatedAt:      parseTime(v.Get("created_at").String()),
	}
	if it.Title == "" {
		rep.Skipped++
		rep.problem("item %q has no title", it.ID)
		return nil
	}
	if it.Status != "" && !model.ValidItemStatus(it.Status) {
		rep.problem("item %s: unknown status %q, importing as pending", it.ID, it.Status)
		it.Status = model.ItemStatusPending
	}
	if it.StructuralHash != "" && !model.ValidHash(it.StructuralHash) {
		rep.problem("item %s: discarding malformed dhash", it.ID)
		it.StructuralHash = ""
	}
	if c := v.Get("color"); c.IsObject() && c.Get("r").Exists() && c.Get("g").Exists() && c.Get("b").Exists() {
		it.AverageColor = &model.Color{
			R: clampByte(c.Get("r").Int()),
			G: clampByte(c.Get("g").Int()),
			B: clampByte(c.Get("b").Int()),
		}
	}

	if it.ID != "" {
		existing, err := store.GetItem(ctx, db, it.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.Skipped++
			return nil
		}
	}

	var photo *imaging.ProcessResult
	if raw := v.Get("image").String(); raw != "" {
		p, err := decodeDataURL(raw, opts.MaxDimension)
		if err != nil {
			rep.problem("item %s: %v", it.ID, err)
		} else {
			photo = p
		}
	}

	if photo != nil && (opts.Rehash || it.StructuralHash == "") {
		hash, err := imaging.ComputeHash(photo.Source, model.FullGrid)
		if err == nil {
			it.StructuralHash = hash
			it.AverageColor = imaging.SampleDominantColor(photo.Source)
			rep.Rehashed++
		}
	}

	created, err := store.CreateItem(ctx, db, it)
	if err != nil {
		return fmt.Errorf("importing item %s: %w", it.ID, err)
	}
	rep.Items++

	if photo != nil && opts.Images != nil {
		if err := opts.Images.PutImage(ctx, created.ID, photo.Data, photo.MIME); err != nil {
			return fmt.Errorf("importing image for %s: %w", created.ID, err)
		}
		if err := store.SetItemImageMIME(ctx, db, created.ID, photo.MIME); err != nil {
			return err
		}
		rep.Images++
	}
	return nil
}

func importClaim(ctx context.Context, db *sql.DB, v gjson.Result, rep *Report) error {
	c := model.Claim{
		ID:            v.Get("id").String(),
		ItemID:        v.Get("item_id").String(),
		ClaimantName:  v.Get("claimant_name").String(),
		ClaimantEmail: v.Get("claimant_email").String(),
		Message:       v.Get("message").String(),
		Status:        model.NormalizeStatus(v.Get("status").String()),
		CreatedAt:     parseTime(v.Get("created_at").String()),
	}
	if c.Status != "" && !model.ValidClaimStatus(c.Status) {
		rep.problem("claim %s: unknown status %q, importing as pending", c.ID, c.Status)
		c.Status = model.ClaimStatusPending
	}

	it, err := store.GetItem(ctx, db, c.ItemID)
	if err != nil {
		return err
	}
	if it == nil {
		rep.Skipped++
		rep.problem("claim %s refers to unknown item %q", c.ID, c.ItemID)
		return nil
	}
	if c.ID != "" {
		existing, err := store.GetClaim(ctx, db, c.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			rep.Skipped++
			return nil
		}
	}

	if _, err := store.InsertClaim(ctx, db, c); err != nil {
		return fmt.Errorf("importing claim %s: %w", c.ID, err)
	}
	rep.Claims++
	return nil
}

// decodeDataURL decodes a base64 data URL and normalizes the image.
func decodeDataURL(s string, maxDim int) (*imaging.ProcessResult, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: image is not a base64 data URL", imaging.ErrImageDecode)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imaging.ErrImageDecode, err)
	}
	return imaging.Process(bytes.NewReader(data), maxDim)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", model.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func clampByte(n int64) uint8 {
	return uint8(min(max(n, 0), 255))
}
