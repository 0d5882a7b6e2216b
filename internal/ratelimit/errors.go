package ratelimit

import "errors"

var (
	// ErrRateLimited is returned by Check when the key has spent its budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrRedisUnavailable wraps failures talking to Redis.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
