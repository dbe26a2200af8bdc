package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates request dispatch. Wait blocks until a slot is available or
// the context is cancelled.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Clock abstracts time so limiters can run on simulated time in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WallClock returns a Clock backed by real time.
func WallClock() Clock { return wallClock{} }

// Paced spaces dispatches evenly at 1/n-second intervals with no bursting.
type Paced struct {
	limiter *rate.Limiter
	clock   Clock
}

// NewPaced creates a limiter allowing perSecond evenly spaced dispatches.
func NewPaced(perSecond int, clock Clock) *Paced {
	if perSecond < 1 {
		perSecond = 1
	}
	if clock == nil {
		clock = WallClock()
	}
	return &Paced{
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		clock:   clock,
	}
}

// Wait blocks until the next evenly spaced slot.
func (p *Paced) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	reservation := p.limiter.ReserveN(p.clock.Now(), 1)
	if !reservation.OK() {
		// Unreachable with burst 1 and n >= 1, but fall back to a plain wait.
		return p.limiter.Wait(ctx)
	}
	delay := reservation.DelayFrom(p.clock.Now())
	if delay <= 0 {
		return nil
	}
	if err := p.clock.Sleep(ctx, delay); err != nil {
		reservation.Cancel()
		return err
	}
	return nil
}
