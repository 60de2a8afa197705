package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/yearbook/internal/feed"
)

// ChangeEvent is the SSE event name of entry changes.
const ChangeEvent = "change"

const (
	streamBuffer = 32
	// retryMillis is the reconnect delay suggested to EventSource clients.
	retryMillis = 3000
)

// stream serves the change feed as Server-Sent Events. Each request owns
// one hub subscription for as long as the client stays connected.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	id := uuid.NewString()
	ch := make(chan feed.Event, streamBuffer)
	if err := s.hub.Subscribe(id, ch); err != nil {
		http.Error(w, "stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer func() { _ = s.hub.Unsubscribe(id) }()

	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry: %d\n: connected\n\n", retryMillis)
	if err := rc.Flush(); err != nil {
		s.logger.Warn(ctx, "stream flush failed", "error", err)
		return
	}

	s.logger.Info(ctx, "viewer connected", "subscriber", id, "viewers", s.hub.Len())
	defer s.logger.Info(ctx, "viewer disconnected", "subscriber", id)

	heartbeat := time.NewTicker(s.opts.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.hub.Done():
			return

		case ev := <-ch:
			data, err := feed.Encode(ev)
			if err != nil {
				s.logger.Error(ctx, "encode change failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ChangeEvent, data)
			if err := rc.Flush(); err != nil {
				return
			}

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
