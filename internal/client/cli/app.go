package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/client/api"
	"github.com/dmitrijs2005/yearbook/internal/client/capture"
	"github.com/dmitrijs2005/yearbook/internal/client/config"
	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Backend is what the client needs from the yearbook server.
type Backend interface {
	List(ctx context.Context) ([]models.Entry, error)
	Create(ctx context.Context, sub models.Submission) (models.Result, error)
	Ping(ctx context.Context) error
	Subscribe(ctx context.Context) (*feed.Subscription, error)
	UploadURL() string
}

type App struct {
	config  *config.Config
	backend Backend
	camera  *capture.Camera
	reader  *bufio.Reader
	out     io.Writer
	logger  logging.Logger
	// viewLogger is used while the full-screen viewer owns the terminal.
	viewLogger logging.Logger
	// viewAfterSubmit opens the viewer when the form redirects.
	viewAfterSubmit bool

	mu   sync.Mutex
	mode Mode
}

// NewApp builds the client. logger receives command logs; viewLogger
// receives logs while the viewer runs.
func NewApp(c *config.Config, logger, viewLogger logging.Logger) *App {
	return &App{
		config:          c,
		backend:         api.NewClient(c.ServerURL, c.RequestTimeout, logger),
		camera:          capture.NewCamera(c.CameraOptions()),
		reader:          bufio.NewReader(os.Stdin),
		out:             os.Stdout,
		logger:          logger,
		viewLogger:      viewLogger,
		viewAfterSubmit: isTerminal(int(os.Stdout.Fd())),
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connection status changed", "mode", string(mode))
	}
}

// StartOnlineStatusWatcher pings the server every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.backend.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) getStatus() string {
	if m := a.Mode(); m != ModeUnknown {
		return "(" + string(m) + ")"
	}
	return ""
}

// Root runs the REPL until the user exits or input ends.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the Super Yearbook (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
