package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/reunite/internal/api"
	"github.com/erazemk/reunite/internal/db"
	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/notify"
	"github.com/erazemk/reunite/internal/store"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server. On first run the database is created together
with an administrator account whose generated password is printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "listen address")
	cmd.Flags().StringP("user", "u", "admin", "admin username on first run")
	a.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	a.v.BindPFlag("admin.user", cmd.Flags().Lookup("user"))
	return cmd
}

func (a *app) serve() error {
	cfg := a.cfg

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DB); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DB, cfg.Admin.User)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DB, cfg.Admin.User, password)
		fmt.Println()
	}

	database, err := a.openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	slog.Info("database ready", "path", cfg.DB)

	ctx := context.Background()

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	if n, err := store.PurgeRevokedTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		slog.Debug("purged expired token revocations", "count", n)
	}

	images, err := a.imageStore(ctx, database)
	if err != nil {
		return fmt.Errorf("setting up image store: %w", err)
	}

	notifier := notify.NewAsync(a.notifier(), cfg.Notify.Queue)

	router, err := api.NewRouter(database, jwtSecret, api.Options{
		Images:        images,
		Notifier:      notifier,
		Templates:     notify.Templates{SiteLink: cfg.Notify.SiteLink},
		Scorer:        a.scorer(),
		ScanSessions:  cfg.Scans.Sessions,
		MaxDimension:  cfg.Images.MaxDimension,
		ThumbnailSize: cfg.Images.Thumbnail,
	})
	if err != nil {
		return fmt.Errorf("setting up router: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "images", cfg.Images.Backend, "notify", cfg.Notify.Backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := notifier.Close(drainCtx); err != nil {
		slog.Warn("pending notifications dropped", "error", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// initDatabase creates a new database, applies the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(what string, err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("%s: %w", what, err)
	}

	if err := db.Migrate(database); err != nil {
		return fail("migrating schema", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail("generating password", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail("hashing password", err)
	}

	_, err = store.CreateUser(context.Background(), database, adminUsername, "", string(hash), model.RoleAdmin)
	if err != nil {
		return fail("creating admin user", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
