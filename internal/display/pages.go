// Package display drives a yearbook viewer: it splits entries into fixed
// pages of four, owns the page navigation state machine with its single
// auto-advance timer, and computes the page-flip animation.
//
// The Controller performs no I/O and owns no timers. Every transition
// returns Effects telling the caller which timer to arm or stop and which
// flip to animate; timers and animations report back with the sequence
// token they were started with, and stale tokens are ignored.
package display

import "github.com/dmitrijs2005/yearbook/internal/models"

// PageSize is the number of slots on every page (two columns, two rows).
const PageSize = 4

// Columns is the grid width of a page.
const Columns = 2

// Page holds exactly PageSize slots; unused slots are placeholders.
type Page [PageSize]models.Entry

// TotalPages returns ceil(n / PageSize).
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// Paginate splits entries into pages, preserving order. The last page is
// padded with placeholders. No entries means no pages.
func Paginate(entries []models.Entry) []Page {
	pages := make([]Page, TotalPages(len(entries)))
	for i, e := range entries {
		pages[i/PageSize][i%PageSize] = e
	}
	return pages
}

// PageAt returns page i of entries, or an all-placeholder page when i is
// out of range.
func PageAt(entries []models.Entry, i int) Page {
	var p Page
	if i < 0 {
		return p
	}
	start := i * PageSize
	for j := 0; j < PageSize && start+j < len(entries); j++ {
		p[j] = entries[start+j]
	}
	return p
}

// Filled returns the number of real entries on p.
func (p Page) Filled() int {
	n := 0
	for _, e := range p {
		if !e.IsPlaceholder() {
			n++
		}
	}
	return n
}
