package api

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/reunite/internal/catalog"
	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/notify"
	"github.com/erazemk/reunite/internal/store"
)

// maxUpload bounds photo uploads.
const maxUpload = 10 << 20

// ItemsHandler serves the public catalog and report submission.
type ItemsHandler struct {
	DB            *sql.DB
	Images        store.ImageStore
	Notifier      notify.Notifier
	Templates     notify.Templates
	MaxDimension  int
	ThumbnailSize int
}

type listItemsResponse struct {
	catalog.Result
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Categories handles GET /api/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, model.Categories)
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filters{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Sort:     q.Get("sort"),
	}

	items, err := store.ListItems(r.Context(), h.DB, "")
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	res := catalog.Query(items, f)
	jsonResponse(w, http.StatusOK, listItemsResponse{
		Result:  res,
		Summary: res.Summary(),
		Tags:    res.Filters.Tags(),
	})
}

// visibleItem loads an item that the caller may see: approved items for
// everyone, any item for administrators. It writes the error response and
// returns nil otherwise.
func (h *ItemsHandler) visibleItem(w http.ResponseWriter, r *http.Request) *model.Item {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil
	}
	if item == nil || (!item.IsApproved() && !isAdmin(r.Context())) {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item := h.visibleItem(w, r)
	if item == nil {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

func (h *ItemsHandler) loadImage(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	item := h.visibleItem(w, r)
	if item == nil {
		return nil, "", false
	}
	if !item.HasImage() {
		jsonError(w, http.StatusNotFound, "no image")
		return nil, "", false
	}

	data, mime, err := h.Images.GetImage(r.Context(), item.ID)
	if err != nil {
		slog.Error("failed to get image", "item", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return nil, "", false
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return nil, "", false
	}
	return data, mime, true
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, ok := h.loadImage(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// GetThumbnail handles GET /api/items/{id}/thumbnail.
func (h *ItemsHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	data, _, ok := h.loadImage(w, r)
	if !ok {
		return
	}

	thumb, err := imaging.Thumbnail(data, h.ThumbnailSize)
	if err != nil {
		slog.Warn("failed to render thumbnail", "item", r.PathValue("id"), "error", err)
		jsonError(w, http.StatusUnprocessableEntity, "stored image cannot be decoded")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(thumb)
}

// Report handles POST /api/items: a multipart form describing a found item
// with an optional "image" file. New reports await review.
func (h *ItemsHandler) Report(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	item, msg := itemFromForm(r)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	var photo *imaging.ProcessResult
	if file, _, err := r.FormFile("image"); err == nil {
		photo, err = imaging.Process(file, h.MaxDimension)
		file.Close()
		if err != nil {
			// The report stands on its own; it just cannot be matched by photo.
			slog.Warn("storing report without image", "title", item.Title, "error", err)
			photo = nil
		}
	}

	if photo != nil {
		hash, err := imaging.ComputeHash(photo.Source, model.FullGrid)
		if err == nil {
			item.StructuralHash = hash
			item.AverageColor = imaging.SampleDominantColor(photo.Source)
		}
	}

	created, err := store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	if photo != nil {
		if err := h.saveImage(r.Context(), created.ID, photo); err != nil {
			slog.Error("failed to save image", "item", created.ID, "error", err)
		} else {
			created.ImageMIME = photo.MIME
		}
	}

	recordAudit(r.Context(), h.DB, model.AuditEvent{
		Action:     model.AuditItemUploaded,
		EntityType: model.EntityItem,
		EntityID:   created.ID,
		Title:      created.Title,
		Details:    "Reported by " + created.ContactName,
	})
	notify.Deliver(r.Context(), h.Notifier, h.Templates.ReportReceived(created))

	slog.Info("item reported", "item", created.ID, "title", created.Title, "signature", created.Signature().String())
	jsonResponse(w, http.StatusCreated, created)
}

func (h *ItemsHandler) saveImage(ctx context.Context, id string, photo *imaging.ProcessResult) error {
	if err := h.Images.PutImage(ctx, id, photo.Data, photo.MIME); err != nil {
		return err
	}
	return store.SetItemImageMIME(ctx, h.DB, id, photo.MIME)
}

// itemFromForm validates the report fields. It returns a message for the
// first invalid field.
func itemFromForm(r *http.Request) (model.Item, string) {
	field := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }

	it := model.Item{
		Title:        field("title"),
		Category:     field("category"),
		Location:     field("location"),
		DateFound:    field("date_found"),
		Description:  field("description"),
		ContactName:  field("contact_name"),
		ContactEmail: field("contact_email"),
		Status:       model.ItemStatusPending,
	}
	if it.Category == "Other" {
		if custom := field("custom_category"); custom != "" {
			it.Category = custom
		}
	}

	switch {
	case it.Title == "":
		return it, "title required"
	case it.Category == "":
		return it, "category required"
	case it.Location == "":
		return it, "location required"
	case it.ContactName == "":
		return it, "contact name required"
	case !model.ValidEmail(it.ContactEmail):
		return it, "valid contact email required"
	}

	if it.DateFound == "" {
		it.DateFound = time.Now().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, it.DateFound); err != nil {
		return it, "date_found must be YYYY-MM-DD"
	}
	return it, ""
}

// readUpload reads the "image" file of a multipart request.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return nil, false
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read image")
		return nil, false
	}
	return buf.Bytes(), true
}

// catalogSnapshot loads every item for matching; scoring discards the ones
// that are not approved.
func catalogSnapshot(db *sql.DB) func(ctx context.Context) ([]model.Item, error) {
	return func(ctx context.Context) ([]model.Item, error) {
		return store.ListItems(ctx, db, "")
	}
}
