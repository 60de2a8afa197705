// Package changefeed turns backend row changes into feed events and fans
// them out to every connected viewer.
//
// Sources produce events: PostgresSource listens on the yearbook_entries
// notification channel, SQLitePoller tails the trigger-maintained change
// log. Pump forwards one source into a Hub; each SSE connection subscribes
// to the Hub with its own buffered channel.
//
// The Hub never blocks on a slow viewer: when a subscriber's buffer is full
// the event is dropped for that subscriber and counted.
package changefeed

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/yearbook/internal/feed"
)

var (
	ErrSubscriberExists   = errors.New("subscriber id already exists")
	ErrSubscriberNotFound = errors.New("subscriber id not found")
	ErrHubClosed          = errors.New("hub is closed")
)

// HubStats is a snapshot of delivery counters.
type HubStats struct {
	TotalPublished uint64
	TotalSent      uint64
	TotalDropped   uint64
	Subscribers    map[string]SubscriberStats
}

type SubscriberStats struct {
	Sent    uint64
	Dropped uint64
}

type subscriberStats struct {
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Hub distributes events to subscribers in publish order.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan<- feed.Event
	stats       map[string]*subscriberStats
	closed      bool
	done        chan struct{}

	totalPublished atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]chan<- feed.Event),
		stats:       make(map[string]*subscriberStats),
		done:        make(chan struct{}),
	}
}

// Subscribe registers ch under id. The caller owns ch and must keep
// draining it until Unsubscribe returns.
func (h *Hub) Subscribe(id string, ch chan<- feed.Event) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if _, exists := h.subscribers[id]; exists {
		return ErrSubscriberExists
	}

	h.subscribers[id] = ch
	h.stats[id] = &subscriberStats{}
	return nil
}

func (h *Hub) Unsubscribe(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if _, exists := h.subscribers[id]; !exists {
		return ErrSubscriberNotFound
	}

	delete(h.subscribers, id)
	delete(h.stats, id)
	return nil
}

// Publish offers ev to every subscriber without blocking. Publishing on a
// closed hub is a no-op.
func (h *Hub) Publish(ev feed.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	h.totalPublished.Add(1)

	for id, ch := range h.subscribers {
		select {
		case ch <- ev:
			h.stats[id].sent.Add(1)
		default:
			h.stats[id].dropped.Add(1)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := HubStats{
		TotalPublished: h.totalPublished.Load(),
		Subscribers:    make(map[string]SubscriberStats, len(h.stats)),
	}
	for id, s := range h.stats {
		sent, dropped := s.sent.Load(), s.dropped.Load()
		result.TotalSent += sent
		result.TotalDropped += dropped
		result.Subscribers[id] = SubscriberStats{Sent: sent, Dropped: dropped}
	}
	return result
}

// Done is closed by Close; stream handlers use it to end their responses.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Close stops the hub. Subscriber channels are not closed. Close is
// idempotent.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	close(h.done)
	return nil
}
