package core

import (
	"context"
	"time"
)

// Receiver consumes an external source of inbound events until ctx is
// cancelled.
type Receiver interface {
	Start(ctx context.Context) error
}

// Fetcher pulls the next batch of events at or after cursor, blocking
// for at most timeout when none are pending.
type Fetcher interface {
	Fetch(ctx context.Context, cursor int64, timeout time.Duration) ([]InboundEvent, error)
}
