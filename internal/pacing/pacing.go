// Package pacing spaces out upstream requests with a minimum interval between them.
package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next request may be sent.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Interval is a Pacer that enforces a fixed minimum interval between requests.
// The first Wait returns immediately.
type Interval struct {
	limiter *rate.Limiter
}

// NewInterval returns a Pacer allowing one request per interval.
// A non-positive interval disables pacing.
func NewInterval(interval time.Duration) Pacer {
	if interval <= 0 {
		return Nop{}
	}
	return &Interval{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the interval since the previous request has elapsed.
func (p *Interval) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Nop never waits.
type Nop struct{}

func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
