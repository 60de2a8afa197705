package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

// listenConn is the part of *pgx.Conn the listener needs.
type listenConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// rowNotice is the NOTIFY payload. It names the row only; payloads are
// capped at 8000 bytes and entries are not.
type rowNotice struct {
	Type feed.EventType `json:"type"`
	ID   string         `json:"id"`
}

const selectEntry = `SELECT id, name, quote, image, created_at FROM ` + common.EntriesTable + ` WHERE id = $1`

var connectPG = func(ctx context.Context, dsn string) (listenConn, error) {
	return pgx.Connect(ctx, dsn)
}

// newBackoff is the reconnect policy; tests shorten it.
var newBackoff = func() retry.Backoff {
	return retry.WithCappedDuration(30*time.Second, retry.NewExponential(250*time.Millisecond))
}

// PostgresSource receives row changes through LISTEN on a dedicated
// connection and reconnects with capped exponential backoff.
type PostgresSource struct {
	dsn     string
	channel string
	logger  logging.Logger
}

func NewPostgresSource(dsn string, logger logging.Logger) *PostgresSource {
	return &PostgresSource{
		dsn:     dsn,
		channel: common.FeedChannel,
		logger:  logger.With("module", "pg_listener"),
	}
}

func (s *PostgresSource) Subscribe(ctx context.Context) (*feed.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := feed.NewSubscription(sourceBuffer, cancel)

	go func() {
		defer cancel()
		sub.Finish(s.run(ctx, sub))
	}()

	return sub, nil
}

func (s *PostgresSource) run(ctx context.Context, sub *feed.Subscription) error {
	for {
		conn, err := s.listen(ctx)
		if err != nil || conn == nil {
			return err
		}

		err = s.receive(ctx, conn, sub)
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = conn.Close(closeCtx)
		cancel()

		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, common.ErrSubscriptionClosed) {
			return nil
		}
		s.logger.Warn(ctx, "listener connection lost, reconnecting", "error", err)
	}
}

// listen connects and issues LISTEN, retrying until it succeeds or ctx ends.
func (s *PostgresSource) listen(ctx context.Context) (listenConn, error) {
	var conn listenConn

	err := retry.Do(ctx, newBackoff(), func(ctx context.Context) error {
		c, err := connectPG(ctx, s.dsn)
		if err != nil {
			s.logger.Warn(ctx, "listener connect failed", "error", err)
			return retry.RetryableError(err)
		}
		if _, err := c.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
			_ = c.Close(ctx)
			s.logger.Warn(ctx, "LISTEN failed", "error", err)
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("listen %s: %w", s.channel, err)
	}

	s.logger.Info(ctx, "listening for entry changes", "channel", s.channel)
	return conn, nil
}

func (s *PostgresSource) receive(ctx context.Context, conn listenConn, sub *feed.Subscription) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var rn rowNotice
		if err := json.Unmarshal([]byte(n.Payload), &rn); err != nil || rn.ID == "" {
			s.logger.Warn(ctx, "skipping malformed notification", "payload", n.Payload, "error", err)
			continue
		}

		ev, ok, err := s.resolve(ctx, conn, rn)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if !sub.Send(ev) {
			return common.ErrSubscriptionClosed
		}
	}
}

// resolve turns a notice into an event, reading inserted and updated rows
// back on conn. A row that is already gone yields ok=false; its delete
// notice follows.
func (s *PostgresSource) resolve(ctx context.Context, conn listenConn, rn rowNotice) (feed.Event, bool, error) {
	typ := feed.EventType(strings.ToUpper(string(rn.Type)))

	switch typ {
	case feed.Delete:
		return feed.Event{Type: typ, Old: &models.Entry{ID: rn.ID}}, true, nil
	case feed.Insert, feed.Update:
	default:
		s.logger.Warn(ctx, "skipping unknown notification", "type", rn.Type)
		return feed.Event{}, false, nil
	}

	var e models.Entry
	err := conn.QueryRow(ctx, selectEntry, rn.ID).Scan(&e.ID, &e.Name, &e.Quote, &e.Image, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Debug(ctx, "notified row is gone", "id", rn.ID)
		return feed.Event{}, false, nil
	}
	if err != nil {
		return feed.Event{}, false, fmt.Errorf("read entry %s: %w", rn.ID, err)
	}

	ev := feed.Event{Type: typ, New: &e}
	if typ == feed.Update {
		ev.Old = &models.Entry{ID: rn.ID}
	}
	return ev, true, nil
}
