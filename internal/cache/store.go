// Package cache provides expiring key-value stores and the contributor dataset cache built on them.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or its entry has expired.
var ErrMiss = errors.New("cache miss")

// Store is a key-value store whose entries expire after a TTL.
// Expired entries behave exactly like absent ones.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// TTL returns the time left before key expires.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expires time.Time) bool {
	return !expires.IsZero() && !now.Before(expires)
}

// remaining reports the TTL left; entries without expiry report a negative duration.
func remaining(now, expires time.Time) time.Duration {
	if expires.IsZero() {
		return -1
	}
	return expires.Sub(now)
}
