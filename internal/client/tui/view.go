package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/yearbook/internal/display"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

const (
	EmptyTitle = "No entries yet!"
	EmptyHint  = "Scan the QR code to add your photo and quote."
)

const cardHeight = 7

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 2)
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	quoteStyle  = lipgloss.NewStyle().Italic(true)
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dotOn       = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render("●")
	dotOff      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("○")

	cardStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	placeholderStyle = lipgloss.NewStyle().Border(lipgloss.HiddenBorder()).Padding(0, 1)
	shadowStyle      = lipgloss.NewStyle().Faint(true)
)

func (m *Model) View() string {
	if m.stopped {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Super Yearbook"))
	if st := m.ctrl.State(); st.TotalPages > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  page %d of %d", st.Current+1, st.TotalPages)))
	}
	if m.jump > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  go to %d_", m.jump)))
	}
	b.WriteString("\n")

	if m.banner != "" {
		b.WriteString(bannerStyle.Render(m.banner))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(faintStyle.Render("Loading entries..."))
		b.WriteString("\n")
	case m.ctrl.State().TotalPages == 0:
		b.WriteString(m.emptyView())
	default:
		b.WriteString(m.pageView())
		b.WriteString("\n\n")
		b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.dots()))
		b.WriteString("\n")
		if m.showQR {
			b.WriteString("\n")
			b.WriteString(m.qrView())
		}
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("←/→ turn • number+enter jump • r QR code • q quit"))
	return b.String()
}

func (m *Model) emptyView() string {
	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, titleStyle.Render(EmptyTitle)))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, EmptyHint))
	b.WriteString("\n\n")
	b.WriteString(m.qrView())
	return b.String()
}

func (m *Model) qrView() string {
	var b strings.Builder
	if m.opts.QR != "" {
		b.WriteString(m.opts.QR)
		if !strings.HasSuffix(m.opts.QR, "\n") {
			b.WriteString("\n")
		}
	}
	if m.opts.UploadURL != "" {
		b.WriteString(faintStyle.Render(m.opts.UploadURL))
		b.WriteString("\n")
	}
	return b.String()
}

// pageView renders the committed page, or the page currently facing the
// viewer while a flip is running. A turning page is narrowed by the cosine
// of its rotation and stays attached to its hinge.
func (m *Model) pageView() string {
	full := m.width
	if full < 20 {
		full = 20
	}

	if m.flip == nil {
		return renderPage(m.ctrl.CurrentPage(), full, m)
	}

	angle, page := m.frame.Outgoing, m.flip.From
	if math.Abs(angle) >= 90 {
		angle, page = m.frame.Incoming, m.flip.To
	}

	scale := math.Abs(math.Cos(angle * math.Pi / 180))
	w := int(float64(full) * scale)
	if w < 8 {
		return strings.Repeat("\n", 2*cardHeight+3)
	}

	out := renderPage(m.ctrl.PageAt(page), w, m)
	if m.frame.ShadowOpacity > display.ShadowPeak/2 {
		out = shadowStyle.Render(out)
	}

	pos := lipgloss.Left
	if m.flip.Hinge() == display.HingeRight {
		pos = lipgloss.Right
	}
	return lipgloss.PlaceHorizontal(full, pos, out)
}

func renderPage(p display.Page, width int, m *Model) string {
	cardW := width/display.Columns - 2
	if cardW < 4 {
		cardW = 4
	}

	rows := make([]string, 0, display.PageSize/display.Columns)
	for r := 0; r < display.PageSize; r += display.Columns {
		cells := make([]string, 0, display.Columns)
		for c := 0; c < display.Columns; c++ {
			cells = append(cells, m.card(p[r+c], cardW))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) card(e models.Entry, width int) string {
	inner := width - 4
	if inner < 1 {
		inner = 1
	}

	if e.IsPlaceholder() {
		return placeholderStyle.Width(width - 2).Height(cardHeight).Render("")
	}

	lines := []string{
		nameStyle.Render(e.Name),
		quoteStyle.Render("“" + e.Quote + "”"),
		"",
		faintStyle.Render("added " + humanize.RelTime(e.CreatedAt, m.opts.Now(), "ago", "from now")),
		faintStyle.Render(e.Image),
	}
	body := lipgloss.NewStyle().Width(inner).MaxHeight(cardHeight).Render(strings.Join(lines, "\n"))
	return cardStyle.Width(width - 2).Height(cardHeight).Render(body)
}

func (m *Model) dots() string {
	st := m.ctrl.State()
	dots := make([]string, st.TotalPages)
	for i := range dots {
		if i == st.Current {
			dots[i] = dotOn
		} else {
			dots[i] = dotOff
		}
	}
	return strings.Join(dots, " ")
}
