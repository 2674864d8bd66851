package api

import (
	"context"
	"time"
)

// QueryTimeout bounds a single round trip to mongo
const QueryTimeout = 10 * time.Second

// WithQueryTimeout derives a context for one query. A parent deadline that
// is sooner still wins.
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}
