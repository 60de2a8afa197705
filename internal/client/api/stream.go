package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/feed"
)

// ChangeEvent is the SSE event name carrying feed events.
const ChangeEvent = "change"

// newBackoff is the reconnect policy of the change feed, shaped like a
// browser EventSource: quick first retry, capped growth.
var newBackoff = func() retry.Backoff {
	return retry.WithCappedDuration(10*time.Second, retry.NewExponential(500*time.Millisecond))
}

// Subscribe opens the change feed. The subscription reconnects on its own
// until ctx ends or it is closed.
func (c *Client) Subscribe(ctx context.Context) (*feed.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := feed.NewSubscription(32, cancel)

	go func() {
		defer cancel()
		sub.Finish(c.follow(ctx, sub))
	}()

	return sub, nil
}

func (c *Client) follow(ctx context.Context, sub *feed.Subscription) error {
	errClosed := common.ErrSubscriptionClosed

	// A connection that delivered events starts the policy over, so a
	// long-lived feed does not inherit the capped delay of earlier drops.
	backoff := newBackoff()
	policy := retry.BackoffFunc(func() (time.Duration, bool) { return backoff.Next() })

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		delivered, err := c.readStream(ctx, sub)
		if delivered > 0 {
			backoff = newBackoff()
		}
		switch {
		case errors.Is(err, errClosed):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}
		c.logger.Warn(ctx, "change feed disconnected, retrying", "error", err, "delivered", delivered)
		return retry.RetryableError(err)
	})

	if errors.Is(err, errClosed) || ctx.Err() != nil {
		return nil
	}
	return err
}

// readStream reads one SSE connection until it breaks and reports how many
// events it delivered.
func (c *Client) readStream(ctx context.Context, sub *feed.Subscription) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+StreamPath, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: stream returned %s", common.ErrUnavailable, resp.Status)
	}

	delivered := 0
	err = readEvents(resp.Body, func(name, data string) error {
		if name != ChangeEvent {
			return nil
		}
		ev, err := feed.Decode([]byte(data))
		if err != nil {
			c.logger.Warn(ctx, "skipping malformed change", "error", err)
			return nil
		}
		if !sub.Send(ev) {
			return common.ErrSubscriptionClosed
		}
		delivered++
		return nil
	})
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return delivered, err
}

// readEvents parses a text/event-stream body and calls fn for each
// dispatched event. Comments and unknown fields are ignored; an event
// without an "event:" field is named "message".
func readEvents(r io.Reader, fn func(name, data string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		name string
		data []string
	)
	for sc.Scan() {
		line := sc.Text()

		if line == "" {
			if len(data) > 0 {
				if name == "" {
					name = "message"
				}
				if err := fn(name, strings.Join(data, "\n")); err != nil {
					return err
				}
			}
			name, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}
