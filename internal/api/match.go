package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/matching"
)

// ScanSessionHeader carries the scan session id between requests.
const ScanSessionHeader = "X-Scan-Session"

// MatchHandler ranks the catalog against an uploaded photo.
type MatchHandler struct {
	Scanner  *matching.Scanner
	Sessions *lru.Cache[string, *matching.Session]
}

type matchResponse struct {
	Matches []matching.Match `json:"matches"`
}

type scanResponse struct {
	Session string `json:"session"`
	Ticket  uint64 `json:"ticket"`
}

// Match handles POST /api/match and responds with the best matches.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r)
	if !ok {
		return
	}

	matches, err := h.Scanner.Run(r.Context(), data)
	if err != nil {
		if errors.Is(err, imaging.ErrImageDecode) {
			jsonError(w, http.StatusUnprocessableEntity, "image cannot be decoded")
			return
		}
		slog.Error("match failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "match failed")
		return
	}
	if matches == nil {
		matches = []matching.Match{}
	}

	jsonResponse(w, http.StatusOK, matchResponse{Matches: matches})
}

// StartScan handles POST /api/scans. The scan runs in the background; a new
// scan on the same session supersedes any scan still running.
func (h *MatchHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r)
	if !ok {
		return
	}

	id := r.Header.Get(ScanSessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	sess := &matching.Session{}
	if prev, found, _ := h.Sessions.PeekOrAdd(id, sess); found {
		sess = prev
		h.Sessions.Get(id) // mark recently used
	}

	// The scan outlives the request.
	ticket := h.Scanner.Start(context.WithoutCancel(r.Context()), sess, data)

	w.Header().Set(ScanSessionHeader, id)
	jsonResponse(w, http.StatusAccepted, scanResponse{Session: id, Ticket: ticket})
}

// GetScan handles GET /api/scans/{session}.
func (h *MatchHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.Get(r.PathValue("session"))
	if !ok {
		jsonError(w, http.StatusNotFound, "scan session not found")
		return
	}
	jsonResponse(w, http.StatusOK, sess.Snapshot())
}
