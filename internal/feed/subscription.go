package feed

import (
	"sync"

	"github.com/dmitrijs2005/yearbook/internal/common"
)

// Subscription is a live handle on the change feed. Consumers pull events
// from Events until the channel is closed, then consult Err.
type Subscription struct {
	events chan Event
	done   chan struct{}

	once   sync.Once
	mu     sync.Mutex
	err    error
	closer func()
}

// NewSubscription creates a handle with the given event buffer. closer, if
// non-nil, is run once when the subscription is closed by the consumer.
func NewSubscription(buffer int, closer func()) *Subscription {
	return &Subscription{
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
		closer: closer,
	}
}

// Events returns the receive side of the feed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done is closed once the consumer calls Close.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Send delivers ev unless the subscription has been closed. It blocks while
// the buffer is full and reports whether the event was delivered.
func (s *Subscription) Send(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Finish is called by the producer when no more events will be sent. err
// is reported by Err; nil means the feed ended normally. The producer must
// not call Send after Finish.
func (s *Subscription) Finish(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	close(s.events)
}

// Close tears the subscription down. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		if s.err == nil {
			s.err = common.ErrSubscriptionClosed
		}
		s.mu.Unlock()
		close(s.done)
		if s.closer != nil {
			s.closer()
		}
	})
}

// Err returns why the feed ended, or nil while it is still running.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
