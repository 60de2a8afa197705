package httpapi

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/display"
	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/models"
	"github.com/dmitrijs2005/yearbook/internal/qr"
	"github.com/dmitrijs2005/yearbook/internal/server/entries"
)

var templateFuncs = template.FuncMap{
	"ms":   func(d time.Duration) int64 { return d.Milliseconds() },
	"secs": func(d time.Duration) int { return int(d.Round(time.Second) / time.Second) },
	"inc":  func(i int) int { return i + 1 },
}

type cardView struct {
	models.Entry
	Placeholder bool
	Added       string
}

type dotView struct {
	Label   int
	Href    string
	Current bool
}

type displayView struct {
	Empty      bool
	UploadURL  string
	Page       int
	TotalPages int
	Cards      []cardView
	// Outgoing is the page being turned away during a flip.
	Outgoing  []cardView
	Animate   bool
	Direction string
	Hinge     string
	Dots      []dotView
	PrevHref  string
	NextHref  string
	// ReloadHref redisplays the current page without a flip.
	ReloadHref string
	// Due is the auto-advance deadline in Unix milliseconds carried over
	// a reload, 0 when the page starts a fresh interval.
	Due     int64
	Notice  string
	Variant string
	Opts    Options
}

type formView struct {
	Name        string
	Quote       string
	Message     string
	Failed      bool
	MaxBytes    int64
	CameraMsg   string
	MissingMsg  string
	TooLargeMsg string
}

func (s *Server) form(name, quote string, res *models.Result) formView {
	v := formView{
		Name:        name,
		Quote:       quote,
		MaxBytes:    s.opts.MaxUploadBytes,
		CameraMsg:   common.CameraErrorText,
		MissingMsg:  entries.MsgMissingFields,
		TooLargeMsg: entries.MsgUploadFailed,
	}
	if res != nil {
		v.Message, v.Failed = res.Message, !res.Success
	}
	return v
}

type successView struct {
	Message       string
	RedirectDelay time.Duration
}

// displayPage renders one yearbook page. Query parameters:
// page (0-based), dir (next|prev, animates from the page in from),
// notice (insert|update|delete, shows a banner), due (auto-advance
// deadline kept across feed reloads) and variant.
func (s *Server) displayPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "display.html", s.buildDisplay(s.gateway.List(r.Context()), r.URL.Query()))
}

func (s *Server) buildDisplay(list []models.Entry, q url.Values) displayView {
	total := display.TotalPages(len(list))

	variant := s.opts.Variant
	if v := q.Get("variant"); v != "" {
		variant = display.ParseVariant(v)
	}

	view := displayView{
		Empty:      total == 0,
		UploadURL:  s.uploadURL(),
		TotalPages: total,
		Notice:     noticeFor(q.Get("notice")),
		Variant:    string(variant),
		Opts:       s.opts,
	}
	if total == 0 {
		return view
	}

	page := clampPage(atoi(q.Get("page")), total)
	view.Page = page
	view.Cards = s.cards(display.PageAt(list, page))

	dir, from := q.Get("dir"), atoi(q.Get("from"))
	if variant == display.Book && (dir == "next" || dir == "prev") && from != page && from >= 0 && from < total {
		flip := display.Flip{From: from, To: page, Direction: display.Forward}
		view.Direction, view.Hinge = "forward", "left"
		if dir == "prev" {
			flip.Direction = display.Backward
			view.Direction = "backward"
		}
		if flip.Hinge() == display.HingeRight {
			view.Hinge = "right"
		}
		view.Animate = true
		view.Outgoing = s.cards(display.PageAt(list, from))
	}

	link := func(to int, dir display.Direction) string {
		v := url.Values{}
		v.Set("page", strconv.Itoa(to))
		v.Set("from", strconv.Itoa(page))
		v.Set("dir", dir.String())
		if q.Get("variant") != "" {
			v.Set("variant", string(variant))
		}
		return "/?" + v.Encode()
	}

	if due, err := strconv.ParseInt(q.Get("due"), 10, 64); err == nil && due > 0 {
		view.Due = due
	}

	reload := url.Values{}
	reload.Set("page", strconv.Itoa(page))
	if q.Get("variant") != "" {
		reload.Set("variant", string(variant))
	}
	view.ReloadHref = "/?" + reload.Encode()

	view.NextHref = link((page+1)%total, display.Forward)
	view.PrevHref = link((page-1+total)%total, display.Backward)
	for i := 0; i < total; i++ {
		dot := dotView{Label: i + 1, Current: i == page}
		if !dot.Current {
			d := display.Forward
			if i < page {
				d = display.Backward
			}
			dot.Href = link(i, d)
		}
		view.Dots = append(view.Dots, dot)
	}
	return view
}

func (s *Server) cards(p display.Page) []cardView {
	out := make([]cardView, len(p))
	for i, e := range p {
		out[i] = cardView{Entry: e, Placeholder: e.IsPlaceholder()}
		if !out[i].Placeholder && !e.CreatedAt.IsZero() {
			out[i].Added = humanize.Time(e.CreatedAt)
		}
	}
	return out
}

func (s *Server) uploadForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "upload.html", s.form("", "", nil))
}

// uploadSubmit handles the browser form. Success shows a confirmation that
// returns to the display; failure re-renders the form with the message.
func (s *Server) uploadSubmit(w http.ResponseWriter, r *http.Request) {
	res, status := s.submit(w, r)
	if res.Success {
		s.render(w, r, http.StatusOK, "success.html", successView{Message: res.Message, RedirectDelay: s.opts.RedirectDelay})
		return
	}

	s.render(w, r, status, "upload.html", s.form(r.FormValue(fieldName), r.FormValue(fieldQuote), &res))
}

func (s *Server) qrCode(w http.ResponseWriter, r *http.Request) {
	size := atoi(r.URL.Query().Get("size"))
	if size < 64 || size > 1024 {
		size = qr.DefaultSize
	}

	png, err := qr.PNG(s.uploadURL(), size)
	if err != nil {
		s.logger.Error(r.Context(), "qr encode failed", "error", err)
		http.Error(w, "qr unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error(r.Context(), "template failed", "template", name, "error", err)
		http.Error(w, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func noticeFor(kind string) string {
	t := feed.EventType(strings.ToUpper(kind))
	switch t {
	case feed.Insert, feed.Update, feed.Delete:
		return feed.Notice(feed.Event{Type: t})
	}
	return ""
}

func clampPage(p, total int) int {
	switch {
	case p < 0:
		return 0
	case p >= total:
		return total - 1
	}
	return p
}

// atoi returns -1 for anything that is not a number.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
