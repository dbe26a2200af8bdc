package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow allows at most max dispatches within any trailing window.
// Bursts up to max pass immediately; the next dispatch then waits for the
// oldest timestamp to age out.
type SlidingWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time
	clock  Clock
}

// NewSlidingWindow creates a limiter permitting max dispatches per window.
func NewSlidingWindow(max int, window time.Duration, clock Clock) *SlidingWindow {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if clock == nil {
		clock = WallClock()
	}
	return &SlidingWindow{
		max:    max,
		window: window,
		stamps: make([]time.Time, 0, max),
		clock:  clock,
	}
}

// Wait blocks until a dispatch slot opens inside the trailing window.
func (w *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.mu.Lock()
		now := w.clock.Now()
		w.evict(now)
		if len(w.stamps) < w.max {
			w.stamps = append(w.stamps, now)
			w.mu.Unlock()
			return nil
		}
		wait := w.stamps[0].Add(w.window).Sub(now)
		w.mu.Unlock()

		if err := w.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// evict drops timestamps older than the trailing window. Caller holds the lock.
func (w *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-w.window)
	idx := 0
	for idx < len(w.stamps) && !w.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[idx:]...)
	}
}
