package utils

import (
	"context"
	"sync/atomic"
	"time"
)

const DefaultQueryTimeout = 5 * time.Second

var queryTimeout atomic.Int64

func init() {
	queryTimeout.Store(int64(DefaultQueryTimeout))
}

// SetQueryTimeout changes the bound applied to every repository call.
// Non-positive values restore the default.
func SetQueryTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultQueryTimeout
	}

	queryTimeout.Store(int64(d))
}

func QueryTimeout() time.Duration {
	return time.Duration(queryTimeout.Load())
}

// WithQueryTimeout derives the context a single statement runs under. A
// tighter deadline already on ctx wins.
func WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, QueryTimeout())
}
