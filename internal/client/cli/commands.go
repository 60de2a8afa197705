package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/dmitrijs2005/yearbook/internal/client/capture"
	"github.com/dmitrijs2005/yearbook/internal/client/form"
	"github.com/dmitrijs2005/yearbook/internal/client/tui"
	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/qr"
)

// runViewer is a test seam for the full-screen viewer.
var runViewer = func(ctx context.Context, lister tui.Lister, sub *feed.Subscription, opts tui.Options, logger logging.Logger) error {
	return tui.Run(ctx, lister, sub, opts, logger)
}

var errCanceled = errors.New("canceled")

var (
	faint   = color.New(color.Faint).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
	italic  = color.New(color.Italic).SprintFunc()
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
)

// List prints every entry, newest first.
func (a *App) List(ctx context.Context) error {
	entries, err := a.backend.List(ctx)
	if err != nil {
		failure.Fprintln(a.out, "Could not reach the yearbook server.")
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, tui.EmptyTitle)
		fmt.Fprintln(a.out, faint("Run 'qr' and scan the code, or 'submit' to add one here."))
		return nil
	}

	for _, e := range entries {
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(a.out, "%s %s  %s  %s\n",
			faint(id), bold(e.Name), italic("“"+e.Quote+"”"), faint(humanize.Time(e.CreatedAt)))
	}
	fmt.Fprintf(a.out, "%d entries\n", len(entries))
	return nil
}

// Submit walks the user through the form. Typing "cancel" at any prompt
// leaves the form.
func (a *App) Submit(ctx context.Context) error {
	nav := newRouteWaiter()
	f := form.NewController(a.backend, nav, a.config.RedirectDelay, a.logger)
	defer f.Close()

	name, err := a.ask("Your name")
	if err != nil {
		return a.leave(ctx, f, nav, err)
	}
	f.SetName(name)

	quote, err := a.ask("Your quote")
	if err != nil {
		return a.leave(ctx, f, nav, err)
	}
	f.SetQuote(quote)

	if err := a.choosePhoto(ctx, f); err != nil {
		return a.leave(ctx, f, nav, err)
	}

	fmt.Fprintln(a.out, "Submitting...")
	res, err := f.Submit(ctx)
	if err != nil {
		failure.Fprintln(a.out, res.Message)
		return err
	}
	if !res.Success {
		failure.Fprintln(a.out, res.Message)
		return errors.New(res.Message)
	}

	success.Fprintln(a.out, res.Message)
	fmt.Fprintln(a.out, faint("Returning to the yearbook..."))
	return a.follow(ctx, nav)
}

// ask reads one answer; "cancel" yields errCanceled.
func (a *App) ask(prompt string) (string, error) {
	v, err := GetSimpleText(a.reader, prompt+" (or 'cancel')", a.out)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(v, "cancel") {
		return "", errCanceled
	}
	return v, nil
}

func (a *App) choosePhoto(ctx context.Context, f *form.Controller) error {
	for {
		v, err := a.ask(fmt.Sprintf("Photo: a file path, 'camera' to take one (%s camera), 'flip' to switch camera", a.camera.Facing()))
		if err != nil {
			return err
		}

		switch strings.ToLower(v) {
		case "":
			return nil

		case "flip":
			fmt.Fprintf(a.out, "Using the %s camera.\n", a.camera.Toggle())
			continue

		case "camera":
			img, err := a.camera.Acquire(ctx)
			if err != nil {
				a.logger.Warn(ctx, "camera capture failed", "error", err)
				failure.Fprintln(a.out, capture.CameraErrorText)
				fmt.Fprintln(a.out, "You can enter a file path instead.")
				continue
			}
			f.UseCapture(img)

		default:
			img, err := capture.Open(v)
			if err != nil {
				failure.Fprintln(a.out, err)
				continue
			}
			f.ChooseFile(img)
		}

		fmt.Fprintln(a.out, "Selected", f.State().Photo)
		return nil
	}
}

// leave handles a prompt that ended the form early.
func (a *App) leave(ctx context.Context, f *form.Controller, nav *routeWaiter, err error) error {
	if !errors.Is(err, errCanceled) {
		return err
	}
	if err := f.Cancel(); err != nil {
		return err
	}
	return a.follow(ctx, nav)
}

// follow waits for the form to navigate and opens the viewer when it
// heads to the display.
func (a *App) follow(ctx context.Context, nav *routeWaiter) error {
	select {
	case route := <-nav.ch:
		if route == common.DisplayRoute && a.viewAfterSubmit {
			return a.View(ctx)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Camera shows the active camera; "flip" switches it and "test" takes a
// throwaway shot.
func (a *App) Camera(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "flip", "toggle":
			a.camera.Toggle()
		case "test":
			img, err := a.camera.Acquire(ctx)
			if err != nil {
				failure.Fprintln(a.out, capture.CameraErrorText)
				return err
			}
			var s capture.Selection
			s.SetCapture(img)
			success.Fprintln(a.out, "Captured", s.Describe())
			return nil
		default:
			fmt.Fprintln(a.out, "Usage: camera [flip|test]")
			return nil
		}
	}

	fmt.Fprintf(a.out, "Camera: %s\n", a.camera.Facing())
	if err := a.camera.Available(); err != nil {
		failure.Fprintln(a.out, err)
		return err
	}
	return nil
}

// View opens the full-screen yearbook until the user quits it.
func (a *App) View(ctx context.Context) error {
	if !isTerminal(int(os.Stdout.Fd())) {
		err := errors.New("view needs an interactive terminal")
		failure.Fprintln(a.out, err)
		return err
	}

	sub, err := a.backend.Subscribe(ctx)
	if err != nil {
		failure.Fprintln(a.out, "Could not open the live feed.")
		return err
	}

	code, err := qr.Terminal(a.backend.UploadURL(), false)
	if err != nil {
		a.logger.Warn(ctx, "qr code render failed", "error", err)
	}

	return runViewer(ctx, a.backend, sub, tui.Options{
		Display:   a.config.DisplayOptions(),
		BannerTTL: a.config.BannerTTL,
		UploadURL: a.backend.UploadURL(),
		QR:        code,
	}, a.viewLogger)
}

// QR prints the code guests scan to reach the upload form.
func (a *App) QR(ctx context.Context) error {
	url := a.backend.UploadURL()
	code, err := qr.Terminal(url, false)
	if err != nil {
		failure.Fprintln(a.out, err)
		return err
	}
	fmt.Fprint(a.out, code)
	fmt.Fprintln(a.out, "Scan to add your photo:", url)
	return nil
}

// routeWaiter is the form's Navigator for the terminal.
type routeWaiter struct {
	ch chan string
}

func newRouteWaiter() *routeWaiter {
	return &routeWaiter{ch: make(chan string, 1)}
}

func (r *routeWaiter) Navigate(route string) {
	select {
	case r.ch <- route:
	default:
	}
}
