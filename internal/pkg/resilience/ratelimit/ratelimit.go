// Package ratelimit spaces outbound calls so upstream providers never
// see more than a configured number of requests per second.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between consecutive calls.
// A burst of one means requests are spaced evenly rather than allowing
// clustered bursts that upstreams count against quotas.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing callsPerSecond requests per second.
// Non-positive values disable limiting entirely.
func New(callsPerSecond float64) *Limiter {
	if callsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1)}
}

// Wait blocks until the next call is permitted or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
