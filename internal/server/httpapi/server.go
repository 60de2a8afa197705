// Package httpapi serves the yearbook over HTTP: the display page, the
// upload form, the JSON API, the SSE change stream, the QR code and, with
// the local blob backend, the uploaded photos.
package httpapi

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/display"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
	"github.com/dmitrijs2005/yearbook/internal/server/changefeed"
	"github.com/dmitrijs2005/yearbook/internal/server/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// Gateway is the entry store the handlers talk to.
type Gateway interface {
	List(ctx context.Context) []models.Entry
	Create(ctx context.Context, sub models.Submission) models.Result
}

type Options struct {
	Addr          string
	PublicBaseURL string
	// MediaDir enables GET /media/ when photos are stored locally.
	MediaDir       string
	MaxUploadBytes int64
	Heartbeat      time.Duration
	Variant        display.Variant
	AutoAdvance    time.Duration
	FlipDuration   time.Duration
	BannerTTL      time.Duration
	RedirectDelay  time.Duration
}

type Server struct {
	opts    Options
	gateway Gateway
	hub     *changefeed.Hub
	logger  logging.Logger
	pages   *template.Template
}

func NewServer(opts Options, gw Gateway, hub *changefeed.Hub, logger logging.Logger) (*Server, error) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	if opts.AutoAdvance <= 0 {
		opts.AutoAdvance = display.DefaultInterval
	}
	if opts.FlipDuration <= 0 {
		opts.FlipDuration = display.DefaultFlipDuration
	}
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = 5 * time.Second
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = 2 * time.Second
	}
	if opts.Variant == "" {
		opts.Variant = display.Book
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")

	pages, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		opts:    opts,
		gateway: gw,
		hub:     hub,
		logger:  logger.With("module", "http_server"),
		pages:   pages,
	}, nil
}

func (s *Server) uploadURL() string {
	return s.opts.PublicBaseURL + common.UploadRoute
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	log := func(h http.HandlerFunc) http.HandlerFunc { return WithLogging(s.logger, h) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Browser pages
	mux.HandleFunc("GET /{$}", log(s.displayPage))
	mux.HandleFunc("GET "+common.UploadRoute, log(s.uploadForm))
	mux.HandleFunc("POST "+common.UploadRoute, log(s.uploadSubmit))
	mux.HandleFunc("GET /qr.png", log(s.qrCode))

	// JSON API
	mux.HandleFunc("GET /api/entries", log(s.listEntries))
	mux.HandleFunc("POST /api/entries", log(s.createEntry))
	mux.HandleFunc("GET /api/entries/stream", log(s.stream))

	if s.opts.MediaDir != "" {
		files := http.StripPrefix(storage.MediaPrefix, http.FileServer(http.Dir(s.opts.MediaDir)))
		mux.Handle("GET "+storage.MediaPrefix, MediaHeaders(files))
	}

	return CORS(mux)
}

// Run serves until ctx ends, then closes the hub (ending open streams) and
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv.RegisterOnShutdown(func() { _ = s.hub.Close() })

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String(), "public_url", s.opts.PublicBaseURL)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
