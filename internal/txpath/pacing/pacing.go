package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer gates calls to a rate-limited collaborator. Pace blocks until
// the next call is allowed or ctx is done. Implementations must be safe
// for concurrent use; the trace service shares one pacer across
// requests so the provider sees a single paced stream.
type Pacer interface {
	Pace(ctx context.Context) error
}

type nop struct{}

func (nop) Pace(context.Context) error { return nil }

// Nop returns a pacer that never waits.
func Nop() Pacer { return nop{} }

type limiter struct {
	l *rate.Limiter
}

func (p limiter) Pace(ctx context.Context) error { return p.l.Wait(ctx) }

// Interval allows one call per d; the first call goes through
// immediately. Free-tier Etherscan keys want Interval(time.Second).
func Interval(d time.Duration) Pacer {
	if d <= 0 {
		return Nop()
	}
	return limiter{l: rate.NewLimiter(rate.Every(d), 1)}
}

// PerSecond allows n calls per second with a burst of one.
func PerSecond(n float64) Pacer {
	if n <= 0 {
		return Nop()
	}
	return limiter{l: rate.NewLimiter(rate.Limit(n), 1)}
}
