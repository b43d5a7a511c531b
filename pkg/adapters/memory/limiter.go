package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
)

type window struct {
	start time.Time
	count int
}

// Limiter implements ports.Limiter in memory with fixed windows.
// Safe for concurrent use.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string]*window
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter allows limit hits per key in every window.
func NewLimiter(limit int, per time.Duration, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		limit:  limit,
		window: per,
		now:    time.Now,
		hits:   make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a hit for key.
func (l *Limiter) Allow(ctx context.Context, key string) (ports.Decision, error) {
	if err := ctx.Err(); err != nil {
		return ports.Decision{}, err
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.hits[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.hits[key] = w
		l.sweep(now)
	}
	w.count++

	return ports.Decision{
		Allowed:    w.count <= l.limit,
		Limit:      l.limit,
		Remaining:  max(l.limit-w.count, 0),
		RetryAfter: w.start.Add(l.window).Sub(now),
	}, nil
}

// sweep drops expired windows. Callers must hold mu.
func (l *Limiter) sweep(now time.Time) {
	for k, w := range l.hits {
		if now.Sub(w.start) >= l.window {
			delete(l.hits, k)
		}
	}
}
