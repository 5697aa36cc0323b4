package api

import (
	"database/sql"
	"fmt"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/matching"
	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/notify"
	"github.com/erazemk/reunite/internal/store"
)

// DefaultScanSessions is the number of scan sessions kept in memory.
const DefaultScanSessions = 256

// Options configures the router's collaborators. Zero values select
// in-database images, no notifications and the default scorer.
type Options struct {
	Images        store.ImageStore
	Notifier      notify.Notifier
	Templates     notify.Templates
	Scorer        matching.Scorer
	ScanSessions  int
	MaxDimension  int
	ThumbnailSize int
}

func (o *Options) setDefaults(db *sql.DB) {
	if o.Images == nil {
		o.Images = store.DBImages{DB: db}
	}
	if o.Notifier == nil {
		o.Notifier = notify.Nop{}
	}
	if o.Scorer == (matching.Scorer{}) {
		o.Scorer = matching.DefaultScorer()
	}
	if o.ScanSessions <= 0 {
		o.ScanSessions = DefaultScanSessions
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = imaging.MaxDimension
	}
	if o.ThumbnailSize <= 0 {
		o.ThumbnailSize = imaging.DefaultThumbnailSize
	}
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) (http.Handler, error) {
	opts.setDefaults(db)

	sessions, err := lru.New[string, *matching.Session](opts.ScanSessions)
	if err != nil {
		return nil, fmt.Errorf("creating scan session cache: %w", err)
	}

	scanner := &matching.Scanner{
		Scorer:     opts.Scorer,
		Candidates: catalogSnapshot(db),
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{
		DB:            db,
		Images:        opts.Images,
		Notifier:      opts.Notifier,
		Templates:     opts.Templates,
		MaxDimension:  opts.MaxDimension,
		ThumbnailSize: opts.ThumbnailSize,
	}
	matchHandler := &MatchHandler{Scanner: scanner, Sessions: sessions}
	claimsHandler := &ClaimsHandler{DB: db, Notifier: opts.Notifier, Templates: opts.Templates}
	adminHandler := &AdminHandler{DB: db, Images: opts.Images, Notifier: opts.Notifier, Templates: opts.Templates}
	dashboardHandler := &DashboardHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	optAuth := OptionalAuth(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Public catalog. Admin tokens also see unpublished items.
	mux.HandleFunc("GET /api/categories", itemsHandler.Categories)
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.Handle("GET /api/items/{id}", optAuth(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("GET /api/items/{id}/image", optAuth(http.HandlerFunc(itemsHandler.GetImage)))
	mux.Handle("GET /api/items/{id}/thumbnail", optAuth(http.HandlerFunc(itemsHandler.GetThumbnail)))
	mux.HandleFunc("POST /api/items", itemsHandler.Report)
	mux.HandleFunc("POST /api/claims", claimsHandler.Create)

	// Photo matching.
	mux.HandleFunc("POST /api/match", matchHandler.Match)
	mux.HandleFunc("POST /api/scans", matchHandler.StartScan)
	mux.HandleFunc("GET /api/scans/{session}", matchHandler.GetScan)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))

	// Review queue (admin only).
	mux.Handle("GET /api/admin/items", admin(adminHandler.ListItems))
	mux.Handle("POST /api/admin/items/{id}/approve", admin(adminHandler.ApproveItem))
	mux.Handle("POST /api/admin/items/{id}/reject", admin(adminHandler.RejectItem))
	mux.Handle("POST /api/admin/items/{id}/claim", admin(adminHandler.MarkClaimed))
	mux.Handle("DELETE /api/admin/items/{id}", admin(adminHandler.DeleteItem))
	mux.Handle("GET /api/admin/claims", admin(adminHandler.ListClaims))
	mux.Handle("POST /api/admin/claims/{id}/approve", admin(adminHandler.ApproveClaim))
	mux.Handle("POST /api/admin/claims/{id}/reject", admin(adminHandler.RejectClaim))
	mux.Handle("DELETE /api/admin/claims/{id}", admin(adminHandler.DeleteClaim))
	mux.Handle("GET /api/admin/audit", admin(adminHandler.Audit))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	return mux, nil
}
