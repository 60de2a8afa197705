package changefeed

import (
	"context"

	"github.com/dmitrijs2005/yearbook/internal/feed"
)

// Source produces the backend's change events. The subscription ends when
// ctx is canceled, when it is closed, or on an unrecoverable error.
type Source interface {
	Subscribe(ctx context.Context) (*feed.Subscription, error)
}

const sourceBuffer = 64
