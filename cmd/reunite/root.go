package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erazemk/reunite/internal/config"
	"github.com/erazemk/reunite/internal/db"
	"github.com/erazemk/reunite/internal/matching"
	"github.com/erazemk/reunite/internal/notify"
	"github.com/erazemk/reunite/internal/objstore"
	"github.com/erazemk/reunite/internal/store"
)

// app carries the loaded configuration between cobra hooks and commands.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      *config.Config
	closeLog func()
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "reunite",
		Short: "Community lost-and-found catalog",
		Long: `reunite serves a catalog of found items. Finders report items with a
photo, owners browse the approved inventory or match their own photo
against it, and administrators review reports and ownership claims.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/"+config.FileName+")")
	pf.StringP("db", "d", "reunite.db", "SQLite database path")
	pf.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	a.v.BindPFlag("db", pf.Lookup("db"))
	a.v.BindPFlag("log.path", pf.Lookup("log"))
	a.v.BindPFlag("log.level", pf.Lookup("log-level"))

	root.AddCommand(
		a.serveCmd(),
		a.hashCmd(),
		a.matchCmd(),
		a.searchCmd(),
		a.importCmd(),
		a.reindexCmd(),
		a.configCmd(),
	)
	return root
}

// load reads the configuration and sets up logging.
func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	closeLog, err := setupLogger(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	a.closeLog = closeLog

	if used := a.v.ConfigFileUsed(); used != "" {
		slog.Debug("config loaded", "file", used)
	}
	return nil
}

// openDB opens an existing database and brings its schema up to date.
func (a *app) openDB() (*sql.DB, error) {
	if _, err := os.Stat(a.cfg.DB); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s", a.cfg.DB)
	}
	database, err := db.Open(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

// imageStore returns the configured photo backend.
func (a *app) imageStore(ctx context.Context, database *sql.DB) (store.ImageStore, error) {
	if a.cfg.Images.Backend != "s3" {
		return store.DBImages{DB: database}, nil
	}

	s3 := a.cfg.S3
	objects, err := objstore.New(objstore.Config{
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		Region:    s3.Region,
		Prefix:    s3.Prefix,
		UseSSL:    s3.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	slog.Info("storing images in s3", "endpoint", s3.Endpoint, "bucket", s3.Bucket)
	return objects, nil
}

// notifier returns the configured notification backend.
func (a *app) notifier() notify.Notifier {
	n := a.cfg.Notify
	switch n.Backend {
	case "http":
		return notify.NewHTTP(notify.HTTPConfig{
			Endpoint:      n.Endpoint,
			ServiceID:     n.ServiceID,
			TemplateID:    n.TemplateID,
			PublicKey:     n.PublicKey,
			PrivateKey:    n.PrivateKey,
			RatePerSecond: n.RatePerSecond,
			Burst:         n.Burst,
		})
	case "log":
		return notify.Log{Logger: slog.Default()}
	}
	return notify.Nop{}
}

func (a *app) scorer() matching.Scorer {
	return matching.Scorer{Threshold: a.cfg.Match.Threshold, Limit: a.cfg.Match.Limit}
}
