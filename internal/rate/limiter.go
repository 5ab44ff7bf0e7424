package rate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Category holds the budget for one request class ("login", "api", "admin").
type Category struct {
	Window        time.Duration
	Max           int
	BlockDuration time.Duration
}

// Config holds rate limiter tuning parameters.
type Config struct {
	Categories         map[string]Category
	Prefix             string
	FallbackMaxKeys    int
	FallbackPruneEvery time.Duration
}

// Result carries the outcome of one rate-limit check. The HTTP layer
// surfaces Remaining, ResetAt, and RetryAfter as response headers.
type Result struct {
	Blocked    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter enforces per-key, per-category fixed-window limits backed by
// Redis counters, with temporary blocking once a window's budget is spent.
//
// The limiter fails open: when Redis is unreachable it degrades to a
// bounded in-process fallback instead of denying real traffic. The wrapped
// [ErrRedisUnavailable] is still returned so callers can log the fault.
type Limiter struct {
	redis    redis.UniversalClient
	config   Config
	fallback *fallbackLimiter
}

// New creates a rate [Limiter] backed by the given Redis client and starts
// the fallback pruning sweep.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	if cfg.FallbackMaxKeys <= 0 {
		cfg.FallbackMaxKeys = 10000
	}
	if cfg.FallbackPruneEvery <= 0 {
		cfg.FallbackPruneEvery = time.Minute
	}

	return &Limiter{
		redis:    redisClient,
		config:   cfg,
		fallback: newFallbackLimiter(cfg.FallbackMaxKeys, cfg.FallbackPruneEvery),
	}
}

// Close stops the fallback pruning sweep.
func (l *Limiter) Close() {
	l.fallback.close()
}

func (l *Limiter) windowKey(key, category string) string {
	return l.config.Prefix + "w:" + category + ":" + key
}

func (l *Limiter) blockKey(key, category string) string {
	return l.config.Prefix + "b:" + category + ":" + key
}

// Check records one hit for (key, category) and reports whether it is
// allowed. An active block entry short-circuits without touching the
// counter. The window increment is a single atomic INCR; the hit that
// creates the window also sets its TTL.
//
//	Performance: 1–3 Redis commands (PTTL + INCR, +SET when blocking).
func (l *Limiter) Check(ctx context.Context, key, category string) (Result, error) {
	cat, ok := l.config.Categories[category]
	if !ok {
		return Result{}, ErrUnknownCategory
	}

	now := time.Now()

	blockTTL, err := l.redis.PTTL(ctx, l.blockKey(key, category)).Result()
	if err != nil {
		return l.fallback.check(key, category, cat, now), wrapUnavailable(err)
	}
	if blockTTL > 0 {
		return Result{
			Blocked:    true,
			Remaining:  0,
			ResetAt:    now.Add(blockTTL),
			RetryAfter: blockTTL,
		}, nil
	}

	windowKey := l.windowKey(key, category)
	count, err := l.redis.Incr(ctx, windowKey).Result()
	if err != nil {
		return l.fallback.check(key, category, cat, now), wrapUnavailable(err)
	}

	// Fixed-window semantics: the increment that creates the window owns
	// its TTL.
	resetAt := now.Add(cat.Window)
	if count == 1 {
		if err := l.redis.PExpire(ctx, windowKey, cat.Window).Err(); err != nil {
			return l.fallback.check(key, category, cat, now), wrapUnavailable(err)
		}
	} else {
		windowTTL, err := l.redis.PTTL(ctx, windowKey).Result()
		if err != nil {
			return l.fallback.check(key, category, cat, now), wrapUnavailable(err)
		}
		if windowTTL > 0 {
			resetAt = now.Add(windowTTL)
		}
	}

	if count > int64(cat.Max) {
		if err := l.redis.Set(ctx, l.blockKey(key, category), 1, cat.BlockDuration).Err(); err != nil {
			return l.fallback.check(key, category, cat, now), wrapUnavailable(err)
		}
		return Result{
			Blocked:    true,
			Remaining:  0,
			ResetAt:    now.Add(cat.BlockDuration),
			RetryAfter: cat.BlockDuration,
		}, nil
	}

	remaining := cat.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Blocked:   false,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears both the window counter and any block entry for
// (key, category). Called after a successful login to forgive prior
// failed attempts.
//
//	Performance: 1 Redis DEL.
func (l *Limiter) Reset(ctx context.Context, key, category string) error {
	l.fallback.reset(key, category)

	err := l.redis.Del(ctx, l.windowKey(key, category), l.blockKey(key, category)).Err()
	if err != nil {
		return wrapUnavailable(err)
	}
	return nil
}
