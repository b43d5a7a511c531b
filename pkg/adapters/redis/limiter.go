package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/lattice/pkg/ports"
)

var (
	// ErrUnexpectedReply is returned when the limiter script answers with an unknown shape.
	ErrUnexpectedReply = errors.New("unexpected redis reply")
)

// hitScript increments the window counter, starts the window on the first
// hit and returns the count together with the remaining window in ms.
var hitScript = backend.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return {current, redis.call("PTTL", KEYS[1])}
`)

// Limiter implements ports.Limiter using Redis fixed windows, so that every
// replica shares the same counters.
type Limiter struct {
	client *backend.Client
	prefix string
	limit  int
	window time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithPrefix sets the key prefix (default "lattice:").
func WithPrefix(prefix string) Option {
	return func(l *Limiter) {
		l.prefix = prefix
	}
}

// NewLimiter creates a Redis limiter allowing limit hits per key in every window.
func NewLimiter(client *backend.Client, limit int, per time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		client: client,
		prefix: "lattice:",
		limit:  limit,
		window: per,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a hit for key.
func (l *Limiter) Allow(ctx context.Context, key string) (ports.Decision, error) {
	windowKey := l.prefix + "ratelimit:" + key

	reply, err := hitScript.Run(ctx, l.client, []string{windowKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.Decision{}, fmt.Errorf("redis error counting hit: %w", err)
	}
	if len(reply) != 2 {
		return ports.Decision{}, fmt.Errorf("%w: %v", ErrUnexpectedReply, reply)
	}

	count := int(reply[0])
	ttl := time.Duration(reply[1]) * time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}

	return ports.Decision{
		Allowed:    count <= l.limit,
		Limit:      l.limit,
		Remaining:  max(l.limit-count, 0),
		RetryAfter: ttl,
	}, nil
}
