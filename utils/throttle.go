package utils

import (
	"context"
	"time"
)

// Throttle enforces a minimum pause between the end of one operation and the
// start of the next. It is not safe for concurrent use; the row loop owns it.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a Throttle. Wait never blocks before the first Mark.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until at least interval has passed since the last Mark, or
// until ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.last.IsZero() {
		return ctx.Err()
	}
	if elapsed := time.Since(t.last); elapsed < t.interval {
		return Sleep(ctx, t.interval-elapsed)
	}
	return ctx.Err()
}

// Mark records the end of an operation.
func (t *Throttle) Mark() {
	t.last = time.Now()
}
