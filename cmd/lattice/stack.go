package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/telemetry"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	redisadapter "github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/middleware"
	"github.com/aretw0/lattice/pkg/ports"
)

// newStack builds the shared middleware dependencies described by cfg. The
// returned cleanup releases them. A nil reg disables metrics.
func newStack(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, traces io.Writer) (stack, func(), error) {
	s := stack{
		logger:  logger,
		tracing: cfg.Tracing.Enabled,
		keyMeta: cfg.RateLimit.KeyMeta,
	}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if reg != nil {
		s.metrics = middleware.NewMetrics(reg)
	}

	if len(cfg.Redact) > 0 {
		redact, err := middleware.Redact(cfg.Redact...)
		if err != nil {
			return stack{}, func() {}, err
		}
		s.redact = redact
	}

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracer("lattice", lattice.Version, traces, logger)
		if err != nil {
			return stack{}, func() {}, fmt.Errorf("init tracing: %w", err)
		}
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("Tracer shutdown failed", "error", err)
			}
		})
	}

	if cfg.RateLimit.Limit > 0 {
		limiter, closeLimiter, err := newLimiter(ctx, cfg)
		if err != nil {
			cleanup()
			return stack{}, func() {}, err
		}
		cleanups = append(cleanups, closeLimiter)
		s.limiter = limiter
		logger.Info("Rate limiting enabled",
			"backend", cfg.RateLimit.Backend,
			"limit", cfg.RateLimit.Limit,
			"window", cfg.RateLimit.Window)
	}

	return s, cleanup, nil
}

func newLimiter(ctx context.Context, cfg config.Config) (ports.Limiter, func(), error) {
	rl := cfg.RateLimit
	if rl.Backend != "redis" {
		return memory.NewLimiter(rl.Limit, rl.Window), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis at %s: %w", cfg.Redis.Addr, err)
	}
	limiter := redisadapter.NewLimiter(client, rl.Limit, rl.Window, redisadapter.WithPrefix(cfg.Redis.Prefix))
	return limiter, func() { client.Close() }, nil
}
