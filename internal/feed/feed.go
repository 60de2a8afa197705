// Package feed models the live change feed of yearbook entries: typed
// events, a pull-based subscription handle and the rules that merge events
// into a viewer's in-memory list.
package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/yearbook/internal/models"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Event is one row-level change. New is set for inserts and updates, Old
// for updates and deletes.
type Event struct {
	Type EventType     `json:"type"`
	New  *models.Entry `json:"new,omitempty"`
	Old  *models.Entry `json:"old,omitempty"`
}

// Notices shown to viewers when an event arrives.
const (
	InsertNotice = "New entry added! 🎉"
	UpdateNotice = "An entry was updated"
	DeleteNotice = "An entry was removed"
)

// Decode parses a JSON change payload. The type is case-insensitive.
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	ev.Type = EventType(strings.ToUpper(string(ev.Type)))

	switch ev.Type {
	case Insert, Update:
		if ev.New == nil {
			return Event{}, fmt.Errorf("decode event: %s without new row", ev.Type)
		}
	case Delete:
		if ev.Old == nil {
			return Event{}, fmt.Errorf("decode event: DELETE without old row")
		}
	default:
		return Event{}, fmt.Errorf("decode event: unknown type %q", ev.Type)
	}
	return ev, nil
}

// Encode is the inverse of Decode.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Notice returns the banner text for ev, or "" when nothing should be shown.
func Notice(ev Event) string {
	switch ev.Type {
	case Insert:
		return InsertNotice
	case Update:
		return UpdateNotice
	case Delete:
		return DeleteNotice
	}
	return ""
}

// Apply merges ev into entries and returns the new list. The input slice is
// never modified.
//
// Inserts are prepended without deduplication; entries may therefore not be
// strictly ordered by CreatedAt when events arrive out of order. Updates
// replace the matching entry in place and deletes remove it; both are no-ops
// for unknown ids.
func Apply(entries []models.Entry, ev Event) []models.Entry {
	switch ev.Type {
	case Insert:
		if ev.New == nil {
			return entries
		}
		out := make([]models.Entry, 0, len(entries)+1)
		out = append(out, *ev.New)
		return append(out, entries...)

	case Update:
		if ev.New == nil {
			return entries
		}
		i := indexOf(entries, ev.New.ID)
		if i < 0 {
			return entries
		}
		out := append([]models.Entry(nil), entries...)
		out[i] = *ev.New
		return out

	case Delete:
		id := ""
		if ev.Old != nil {
			id = ev.Old.ID
		}
		i := indexOf(entries, id)
		if i < 0 {
			return entries
		}
		out := make([]models.Entry, 0, len(entries)-1)
		out = append(out, entries[:i]...)
		return append(out, entries[i+1:]...)
	}
	return entries
}

func indexOf(entries []models.Entry, id string) int {
	if id == "" {
		return -1
	}
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
