// Package pacing spaces out browser actions with randomized pauses and caps
// how often comments are posted.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/tokpromo/tokpromo/internal/config"
)

// Pacer sleeps for random durations and throttles comment submission.
type Pacer struct {
	limiter *rate.Limiter
	jitter  func(n int64) int64
}

// New creates a pacer allowing at most one comment per minGap. A zero gap
// disables the throttle.
func New(minGap time.Duration) *Pacer {
	limit := rate.Inf
	if minGap > 0 {
		limit = rate.Every(minGap)
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		jitter:  rand.Int64N,
	}
}

// Pick draws a duration from r. An inverted range yields r.Min.
func (p *Pacer) Pick(r config.Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(p.jitter(int64(r.Max-r.Min)+1))
}

// Pause sleeps for a random duration in r, returning early if ctx ends.
func (p *Pacer) Pause(ctx context.Context, r config.Range) error {
	d := p.Pick(r)
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Throttle blocks until another comment may be posted.
func (p *Pacer) Throttle(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
