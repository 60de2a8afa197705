// Package form drives the submission form: Editing, then Submitting, then
// either Success (followed by a redirect to the display) or back to Editing
// with an error message.
package form

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/client/capture"
	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

// Messages shown by the form itself. Server messages are shown verbatim.
const (
	MsgMissingFields = "Missing required fields"
	MsgUnexpected    = "An unexpected error occurred. Please try again."
)

// DefaultRedirectDelay is how long the success message stays up.
const DefaultRedirectDelay = 2 * time.Second

type Phase int

const (
	Editing Phase = iota
	Submitting
	Success
)

func (p Phase) String() string {
	switch p {
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	default:
		return "editing"
	}
}

// Submitter sends a submission to the entry store.
type Submitter interface {
	Create(ctx context.Context, sub models.Submission) (models.Result, error)
}

// Navigator leaves the form for another route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// afterFunc is a test seam for time.AfterFunc; it returns a stop function.
var afterFunc = func(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// State is a snapshot for rendering.
type State struct {
	Phase   Phase
	Name    string
	Quote   string
	Photo   string
	Message string
	// Failed is set when Message is an error rather than a confirmation.
	Failed bool
}

// Controller owns the form fields and the submit flow.
type Controller struct {
	submitter Submitter
	nav       Navigator
	delay     time.Duration
	logger    logging.Logger

	mu        sync.Mutex
	phase     Phase
	name      string
	quote     string
	selection capture.Selection
	message   string
	failed    bool
	stop      func() bool
}

func NewController(s Submitter, nav Navigator, redirectDelay time.Duration, logger logging.Logger) *Controller {
	if redirectDelay <= 0 {
		redirectDelay = DefaultRedirectDelay
	}
	return &Controller{
		submitter: s,
		nav:       nav,
		delay:     redirectDelay,
		logger:    logger.With("module", "form"),
	}
}

func (c *Controller) SetName(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = v
}

func (c *Controller) SetQuote(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quote = v
}

// ChooseFile selects a picked file, dropping any camera shot.
func (c *Controller) ChooseFile(img *models.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SetFile(img)
}

// UseCapture selects a camera shot, dropping any picked file.
func (c *Controller) UseCapture(img *models.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SetCapture(img)
}

// ClearPhoto drops the current selection.
func (c *Controller) ClearPhoto() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Phase:   c.phase,
		Name:    c.name,
		Quote:   c.quote,
		Photo:   c.selection.Describe(),
		Message: c.message,
		Failed:  c.failed,
	}
}

// Submit sends the form. It returns common.ErrSubmitInProgress while an
// earlier submit is in flight or the success redirect is pending, and
// common.ErrMissingFields when a field is blank. Any other outcome is
// reported through the returned Result and State.
func (c *Controller) Submit(ctx context.Context) (models.Result, error) {
	c.mu.Lock()
	if c.phase != Editing {
		c.mu.Unlock()
		return models.Result{}, common.ErrSubmitInProgress
	}

	sub := models.Submission{
		Name:  strings.TrimSpace(c.name),
		Quote: strings.TrimSpace(c.quote),
		Image: c.selection.Image(),
	}
	if sub.Name == "" || sub.Quote == "" || sub.Image.Empty() {
		c.message, c.failed = MsgMissingFields, true
		c.mu.Unlock()
		return models.Result{Message: MsgMissingFields}, common.ErrMissingFields
	}

	c.phase = Submitting
	c.message, c.failed = "", false
	c.mu.Unlock()

	res, err := c.submitter.Create(ctx, sub)
	if err != nil {
		c.logger.Error(ctx, "submit failed", "error", err)
		res = models.Result{Message: MsgUnexpected}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.message = res.Message
	if !res.Success {
		c.phase, c.failed = Editing, true
		return res, nil
	}

	c.phase, c.failed = Success, false
	c.name, c.quote = "", ""
	c.selection.Clear()
	c.stop = afterFunc(c.delay, c.redirect)
	c.logger.Info(ctx, "entry submitted", "name", sub.Name)
	return res, nil
}

func (c *Controller) redirect() {
	c.mu.Lock()
	if c.phase != Success {
		c.mu.Unlock()
		return
	}
	c.phase, c.message, c.stop = Editing, "", nil
	c.mu.Unlock()

	c.nav.Navigate(common.DisplayRoute)
}

// Cancel leaves for the display. It is refused while submitting.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.phase == Submitting {
		c.mu.Unlock()
		return common.ErrSubmitInProgress
	}
	c.stopRedirect()
	c.phase, c.message, c.failed = Editing, "", false
	c.mu.Unlock()

	c.nav.Navigate(common.DisplayRoute)
	return nil
}

// Close drops a pending redirect without navigating.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRedirect()
	if c.phase == Success {
		c.phase, c.message = Editing, ""
	}
}

func (c *Controller) stopRedirect() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}
