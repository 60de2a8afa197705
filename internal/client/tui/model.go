// Package tui is the full-screen terminal display: the yearbook pages, the
// live change banner and the QR code pointing guests to the upload form.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmitrijs2005/yearbook/internal/display"
	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

// frameInterval paces flip animation frames (about 30 fps).
const frameInterval = 33 * time.Millisecond

const listTimeout = 10 * time.Second

// Lister loads the entry snapshot.
type Lister interface {
	List(ctx context.Context) ([]models.Entry, error)
}

type Options struct {
	Display   display.Options
	BannerTTL time.Duration
	UploadURL string
	// QR is the pre-rendered terminal QR code of UploadURL.
	QR string
	// Now defaults to time.Now.
	Now func() time.Time
}

type (
	entriesMsg struct {
		entries []models.Entry
		err     error
	}
	feedMsg       struct{ ev feed.Event }
	feedClosedMsg struct{ err error }
	timerMsg      struct{ seq uint64 }
	frameMsg      struct {
		seq uint64
		at  time.Time
	}
	bannerMsg struct{ seq uint64 }
)

// Model is the bubbletea model of the viewer.
type Model struct {
	ctx    context.Context
	lister Lister
	sub    *feed.Subscription
	opts   Options
	logger logging.Logger

	ctrl *display.Controller

	flip      *display.Flip
	flipStart time.Time
	frame     display.Frame

	banner    string
	bannerSeq uint64

	// jump holds the page number typed so far, 0 when none.
	jump int

	loaded  bool
	status  string
	showQR  bool
	width   int
	height  int
	stopped bool
}

// New builds the viewer over an already open subscription. The model owns
// sub from now on and closes it when the viewer quits.
func New(ctx context.Context, lister Lister, sub *feed.Subscription, opts Options, logger logging.Logger) *Model {
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Model{
		ctx:    ctx,
		lister: lister,
		sub:    sub,
		opts:   opts,
		logger: logger.With("module", "viewer"),
		ctrl:   display.NewController(opts.Display),
		width:  80,
		height: 24,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitEvent(), m.apply(m.ctrl.Start()))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case entriesMsg:
		m.loaded = true
		if msg.err != nil {
			m.logger.Warn(m.ctx, "could not load entries", "error", msg.err)
			m.status = "server unavailable"
			return m, nil
		}
		m.status = ""
		return m, m.apply(m.ctrl.SetEntries(msg.entries))

	case feedMsg:
		entries := feed.Apply(m.ctrl.Entries(), msg.ev)
		m.banner = feed.Notice(msg.ev)
		m.bannerSeq++
		seq := m.bannerSeq
		return m, tea.Batch(
			m.waitEvent(),
			m.apply(m.ctrl.SetEntries(entries)),
			tea.Tick(m.opts.BannerTTL, func(time.Time) tea.Msg { return bannerMsg{seq: seq} }),
		)

	case feedClosedMsg:
		if !m.stopped {
			m.logger.Warn(m.ctx, "change feed ended", "error", msg.err)
			m.status = "live updates stopped"
		}
		return m, nil

	case bannerMsg:
		if msg.seq == m.bannerSeq {
			m.banner = ""
		}
		return m, nil

	case timerMsg:
		return m, m.apply(m.ctrl.TimerFired(msg.seq))

	case frameMsg:
		return m, m.advanceFrame(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := msg.String()
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' && (m.jump > 0 || s[0] != '0') {
		return m, m.typeDigit(int(s[0] - '0'))
	}

	pending := m.jump
	m.jump = 0

	switch s {
	case "q", "esc", "ctrl+c":
		m.Stop()
		return m, tea.Quit
	case "enter":
		if pending > 0 {
			return m, m.apply(m.ctrl.JumpTo(pending - 1))
		}
	case "right", "l", " ", "n":
		return m, m.apply(m.ctrl.Next())
	case "left", "h", "p":
		return m, m.apply(m.ctrl.Previous())
	case "r":
		m.showQR = !m.showQR
	}
	return m, nil
}

// typeDigit extends the typed page number. The jump happens as soon as no
// further digit could name an existing page; otherwise enter confirms it.
func (m *Model) typeDigit(d int) tea.Cmd {
	m.jump = m.jump*10 + d
	if m.jump*10 <= m.ctrl.State().TotalPages {
		return nil
	}
	page := m.jump
	m.jump = 0
	return m.apply(m.ctrl.JumpTo(page - 1))
}

// Stop closes the subscription and makes pending timers stale.
func (m *Model) Stop() {
	if m.stopped {
		return
	}
	m.stopped = true
	m.ctrl.Stop()
	m.flip = nil
	if m.sub != nil {
		m.sub.Close()
	}
}

// apply turns controller effects into commands.
func (m *Model) apply(eff display.Effects) tea.Cmd {
	var cmds []tea.Cmd

	if eff.StartTimer {
		seq := eff.TimerSeq
		cmds = append(cmds, tea.Tick(eff.Interval, func(time.Time) tea.Msg { return timerMsg{seq: seq} }))
	}

	if eff.Flip != nil {
		f := *eff.Flip
		m.flip = &f
		m.flipStart = m.opts.Now()
		m.frame = f.Frame(0)
		cmds = append(cmds, frameTick(f.Seq))
	}

	return tea.Batch(cmds...)
}

func frameTick(seq uint64) tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg{seq: seq, at: t} })
}

func (m *Model) advanceFrame(msg frameMsg) tea.Cmd {
	if m.flip == nil || msg.seq != m.flip.Seq {
		return nil
	}

	m.frame = m.flip.Frame(msg.at.Sub(m.flipStart))
	if !m.frame.Done {
		return frameTick(msg.seq)
	}

	m.flip = nil
	return m.apply(m.ctrl.AnimationDone(msg.seq))
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, listTimeout)
		defer cancel()
		entries, err := m.lister.List(ctx)
		return entriesMsg{entries: entries, err: err}
	}
}

func (m *Model) waitEvent() tea.Cmd {
	sub := m.sub
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return feedClosedMsg{err: sub.Err()}
		}
		return feedMsg{ev: ev}
	}
}
