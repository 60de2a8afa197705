package display

import (
	"time"

	"github.com/dmitrijs2005/yearbook/internal/models"
)

// DefaultInterval is the auto-advance period.
const DefaultInterval = 10 * time.Second

type Phase int

const (
	Idle Phase = iota
	Flipping
)

func (p Phase) String() string {
	if p == Flipping {
		return "flipping"
	}
	return "idle"
}

// Variant selects how page changes are presented.
type Variant string

const (
	// Book turns pages with the flip animation.
	Book Variant = "book"
	// Carousel switches pages instantly.
	Carousel Variant = "carousel"
)

// ParseVariant maps a config value to a Variant; unknown values mean Book.
func ParseVariant(s string) Variant {
	if Variant(s) == Carousel {
		return Carousel
	}
	return Book
}

// Effects are the side effects a transition asks the caller to perform, in
// this order: stop the timer, arm the timer, start the flip.
type Effects struct {
	StopTimer bool

	// StartTimer asks for a one-shot timer of Interval that must report
	// TimerFired(TimerSeq).
	StartTimer bool
	TimerSeq   uint64
	Interval   time.Duration

	// Flip, when set, must be animated and reported with AnimationDone(Flip.Seq).
	Flip *Flip

	// Changed is set when the visible page was committed.
	Changed bool
}

func (e Effects) merge(o Effects) Effects {
	e.StopTimer = e.StopTimer || o.StopTimer
	if o.StartTimer {
		e.StartTimer, e.TimerSeq, e.Interval = true, o.TimerSeq, o.Interval
	}
	if o.Flip != nil {
		e.Flip = o.Flip
	}
	e.Changed = e.Changed || o.Changed
	return e
}

// State is a snapshot of the controller.
type State struct {
	Phase      Phase
	Current    int
	From       int
	To         int
	Direction  Direction
	TotalPages int
}

type Options struct {
	Variant      Variant
	Interval     time.Duration
	FlipDuration time.Duration
}

// Controller is the page navigation state machine. It is not safe for
// concurrent use; drive it from one event loop.
type Controller struct {
	opts Options

	entries []models.Entry
	total   int

	phase   Phase
	current int
	from    int
	to      int
	dir     Direction

	timerSeq uint64
	flipSeq  uint64
}

func NewController(opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.FlipDuration <= 0 {
		opts.FlipDuration = DefaultFlipDuration
	}
	if opts.Variant == "" {
		opts.Variant = Book
	}
	return &Controller{opts: opts}
}

// Start arms the auto-advance timer. Call it once when the view opens.
func (c *Controller) Start() Effects {
	return c.armTimer()
}

// Stop tears the controller down: the timer is stopped and any pending
// timer or animation completion becomes stale.
func (c *Controller) Stop() Effects {
	c.timerSeq++
	c.flipSeq++
	return Effects{StopTimer: true}
}

// SetEntries replaces the entry list. In Idle the current page is clamped
// into range; during a flip nothing changes until the flip completes.
func (c *Controller) SetEntries(entries []models.Entry) Effects {
	c.entries = entries
	c.total = TotalPages(len(entries))

	if c.phase == Idle && c.current > c.lastPage() {
		c.current = c.lastPage()
		return Effects{Changed: true}
	}
	return Effects{}
}

func (c *Controller) Next() Effects {
	if c.phase != Idle || c.total <= 1 {
		return Effects{}
	}
	return c.begin((c.current+1)%c.total, Forward)
}

func (c *Controller) Previous() Effects {
	if c.phase != Idle || c.total <= 1 {
		return Effects{}
	}
	return c.begin((c.current-1+c.total)%c.total, Backward)
}

// JumpTo turns directly to page i; it is ignored for the current page, an
// out-of-range page or while flipping.
func (c *Controller) JumpTo(i int) Effects {
	if c.phase != Idle || i == c.current || i < 0 || i >= c.total {
		return Effects{}
	}
	dir := Forward
	if i < c.current {
		dir = Backward
	}
	return c.begin(i, dir)
}

// TimerFired handles the auto-advance timer. With a single page (or none)
// the timer is simply re-armed.
func (c *Controller) TimerFired(seq uint64) Effects {
	if seq != c.timerSeq || c.phase != Idle {
		return Effects{}
	}
	if c.total <= 1 {
		return c.armTimer()
	}
	return c.Next()
}

// AnimationDone completes the flip with the given sequence token, commits
// the target page and re-arms the timer.
func (c *Controller) AnimationDone(seq uint64) Effects {
	if c.phase != Flipping || seq != c.flipSeq {
		return Effects{}
	}

	c.phase = Idle
	c.current = c.to
	if c.current > c.lastPage() {
		c.current = c.lastPage()
	}

	return Effects{Changed: true}.merge(c.armTimer())
}

func (c *Controller) State() State {
	return State{
		Phase:      c.phase,
		Current:    c.current,
		From:       c.from,
		To:         c.to,
		Direction:  c.dir,
		TotalPages: c.total,
	}
}

// CurrentPage returns the committed page's slots.
func (c *Controller) CurrentPage() Page {
	return PageAt(c.entries, c.current)
}

// PageAt returns page i of the current entries.
func (c *Controller) PageAt(i int) Page {
	return PageAt(c.entries, i)
}

func (c *Controller) Entries() []models.Entry {
	return c.entries
}

func (c *Controller) Variant() Variant {
	return c.opts.Variant
}

func (c *Controller) begin(target int, dir Direction) Effects {
	c.phase = Flipping
	c.from, c.to, c.dir = c.current, target, dir
	c.flipSeq++
	c.timerSeq++

	duration := c.opts.FlipDuration
	if c.opts.Variant == Carousel {
		duration = 0
	}

	eff := Effects{
		StopTimer: true,
		Flip: &Flip{
			From:      c.from,
			To:        c.to,
			Direction: dir,
			Duration:  duration,
			Seq:       c.flipSeq,
		},
	}

	if c.opts.Variant == Carousel {
		done := c.AnimationDone(c.flipSeq)
		eff.Flip = nil
		return eff.merge(done)
	}
	return eff
}

func (c *Controller) armTimer() Effects {
	c.timerSeq++
	return Effects{StartTimer: true, TimerSeq: c.timerSeq, Interval: c.opts.Interval}
}

func (c *Controller) lastPage() int {
	if c.total == 0 {
		return 0
	}
	return c.total - 1
}
