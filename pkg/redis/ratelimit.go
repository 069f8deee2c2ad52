package redis

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimitExceeded is returned when the rate limit is exceeded
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	RetryIn   time.Duration
}

// RateLimiter provides fixed-window rate limiting using Redis. Good enough
// for abuse control on public form submissions; not a precision limiter.
type RateLimiter struct {
	client    *Client
	keyPrefix string
	limit     int64
	window    time.Duration
}

// NewRateLimiter creates a new RateLimiter
func NewRateLimiter(client *Client, keyPrefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     int64(limit),
		window:    window,
	}
}

// Allow consumes one unit for the key and reports whether the caller is
// within the limit. The window starts on the first hit and expires with the
// key.
func (r *RateLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	fullKey := r.keyPrefix + key

	count, err := r.client.rdb.Incr(ctx, fullKey).Result()
	if err != nil {
		return nil, err
	}

	if count == 1 {
		if err := r.client.rdb.Expire(ctx, fullKey, r.window).Err(); err != nil {
			return nil, err
		}
	}

	if count > r.limit {
		ttl, err := r.client.rdb.TTL(ctx, fullKey).Result()
		if err != nil || ttl < 0 {
			ttl = r.window
		}
		return &RateLimitResult{Allowed: false, Remaining: 0, RetryIn: ttl}, nil
	}

	return &RateLimitResult{Allowed: true, Remaining: r.limit - count}, nil
}
