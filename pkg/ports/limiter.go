package ports

import (
	"context"
	"time"
)

// Decision is the answer of a Limiter for one hit.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long until the current window resets.
	RetryAfter time.Duration
}

// Limiter counts hits per key within a time window.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow records one hit for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (Decision, error)
}
