package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Limiter decides whether one more request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds the budget shared by every key.
type Config struct {
	Limit  int
	Window time.Duration
}

// Check is Allow that reports a spent budget as ErrRateLimited.
func Check(ctx context.Context, l Limiter, key string) error {
	ok, err := l.Allow(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

// Fallback consults Primary and switches to Secondary for any request where
// Primary fails. Both keep their own windows, so during an outage a client
// gets a fresh budget on the secondary.
type Fallback struct {
	Primary   Limiter
	Secondary Limiter
	Logger    *slog.Logger
}

// Allow implements Limiter.
func (f *Fallback) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := f.Primary.Allow(ctx, key)
	if err == nil {
		return ok, nil
	}
	if f.Logger != nil {
		f.Logger.Warn("primary rate limiter failed, using fallback", "error", err)
	}
	ok, ferr := f.Secondary.Allow(ctx, key)
	if ferr != nil {
		return false, fmt.Errorf("fallback limiter: %w", errors.Join(err, ferr))
	}
	return ok, nil
}
