package changefeed

import (
	"context"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
	"github.com/dmitrijs2005/yearbook/internal/server/repositories/entries"
)

const pollBatch = 100

// SQLitePoller tails the entry_changes log. Each subscription starts after
// the last change present when it was created.
type SQLitePoller struct {
	log      entries.ChangeLog
	interval time.Duration
	logger   logging.Logger
}

func NewSQLitePoller(log entries.ChangeLog, interval time.Duration, logger logging.Logger) *SQLitePoller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &SQLitePoller{log: log, interval: interval, logger: logger.With("module", "sqlite_poller")}
}

func (p *SQLitePoller) Subscribe(ctx context.Context) (*feed.Subscription, error) {
	last, err := p.log.LastSeq(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := feed.NewSubscription(sourceBuffer, cancel)

	go func() {
		defer cancel()
		p.run(ctx, sub, last)
		sub.Finish(nil)
	}()

	return sub, nil
}

func (p *SQLitePoller) run(ctx context.Context, sub *feed.Subscription, last int64) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			changes, err := p.log.ChangesSince(ctx, last, pollBatch)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Warn(ctx, "change log poll failed", "error", err)
				}
				break
			}
			for _, c := range changes {
				if !sub.Send(ChangeEvent(c)) {
					return
				}
				last = c.Seq
			}
			if len(changes) < pollBatch {
				break
			}
		}
	}
}

// ChangeEvent converts a change log row into a feed event.
func ChangeEvent(c entries.Change) feed.Event {
	e := c.Entry
	switch feed.EventType(c.Op) {
	case feed.Insert:
		return feed.Event{Type: feed.Insert, New: &e}
	case feed.Update:
		return feed.Event{Type: feed.Update, New: &e, Old: &models.Entry{ID: e.ID}}
	default:
		return feed.Event{Type: feed.Delete, Old: &e}
	}
}
