package changefeed

import (
	"context"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
)

// resubscribeDelay separates attempts to reopen a failed source.
var resubscribeDelay = time.Second

// Pump forwards events from src into hub until ctx ends. onEvent, if set,
// runs before each publish (the gateway uses it to drop its list cache). A
// source that ends early is subscribed again.
func Pump(ctx context.Context, src Source, hub *Hub, onEvent func(feed.Event), logger logging.Logger) {
	logger = logger.With("module", "feed_pump")

	for ctx.Err() == nil {
		sub, err := src.Subscribe(ctx)
		if err != nil {
			logger.Error(ctx, "change source subscribe failed", "error", err)
			if !sleep(ctx, resubscribeDelay) {
				return
			}
			continue
		}

		for ev := range sub.Events() {
			logger.Debug(ctx, "entry change", "type", ev.Type)
			if onEvent != nil {
				onEvent(ev)
			}
			hub.Publish(ev)
		}
		err = sub.Err()
		sub.Close()

		if ctx.Err() != nil {
			return
		}
		logger.Warn(ctx, "change source ended, resubscribing", "error", err)
		if !sleep(ctx, resubscribeDelay) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
