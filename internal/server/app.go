// Package server wires the yearbook server: database, photo storage, the
// change feed and the HTTP server, and runs them until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/yearbook/internal/display"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/server/changefeed"
	"github.com/dmitrijs2005/yearbook/internal/server/config"
	"github.com/dmitrijs2005/yearbook/internal/server/entries"
	"github.com/dmitrijs2005/yearbook/internal/server/httpapi"
	"github.com/dmitrijs2005/yearbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yearbook/internal/server/storage"
)

var logOutput io.Writer = os.Stdout

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	source changefeed.Source
	hub    *changefeed.Hub
	gate   *entries.Service
	http   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(logOutput, c.LogLevel)

	db, rm, err := repomanager.Open(ctx, c.DatabaseBackend, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app, err := build(ctx, c, db, rm, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) (*App, error) {
	blobs, mediaDir, err := openBlobStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var src changefeed.Source
	switch m := rm.(type) {
	case *repomanager.SQLiteRepositoryManager:
		src = changefeed.NewSQLitePoller(m.ChangeLog(db), c.PollInterval, logger)
	default:
		src = changefeed.NewPostgresSource(c.DatabaseDSN, logger)
	}

	hub := changefeed.NewHub()
	gate := entries.NewService(db, rm, blobs, c.ListCacheTTL, logger)

	srv, err := httpapi.NewServer(httpapi.Options{
		Addr:           c.Addr,
		PublicBaseURL:  c.PublicBaseURL,
		MediaDir:       mediaDir,
		MaxUploadBytes: c.MaxUploadBytes,
		Heartbeat:      c.StreamHeartbeat,
		Variant:        display.ParseVariant(c.Variant),
		AutoAdvance:    c.AutoAdvance,
		FlipDuration:   c.FlipDuration,
		BannerTTL:      c.BannerTTL,
		RedirectDelay:  c.RedirectDelay,
	}, gate, hub, logger)
	if err != nil {
		return nil, fmt.Errorf("http server init error: %w", err)
	}

	return &App{config: c, logger: logger, db: db, source: src, hub: hub, gate: gate, http: srv}, nil
}

// openBlobStore returns the configured store and, for the local backend, the
// directory the HTTP server should expose under /media/.
func openBlobStore(ctx context.Context, c *config.Config) (storage.BlobStore, string, error) {
	switch c.BlobBackend {
	case config.BlobS3:
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			PublicURL:    c.S3PublicURL,
		})
		return s, "", err
	case config.BlobLocal:
		s, err := storage.NewLocalStore(c.MediaDir, c.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
	return nil, "", fmt.Errorf("unknown blob backend %q", c.BlobBackend)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is canceled, a signal arrives or the HTTP server
// fails, then waits for the feed pump and the server and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "database", app.config.DatabaseBackend, "blobs", app.config.BlobBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		changefeed.Pump(ctx, app.source, app.hub, app.gate.OnEvent, app.logger)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	_ = app.hub.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(context.Background(), "Stopped")
}
