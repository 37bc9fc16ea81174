package synth

import (
	"context"
	"time"
)

// Pacer imposes the artificial delay each tier is expected to take, so a
// cache hit and a deep analysis feel different to the learner.
type Pacer interface {
	// Pace blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Pace(ctx context.Context, d time.Duration) error
}

// SleepPacer waits on a timer.
type SleepPacer struct{}

func (SleepPacer) Pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoPacer never waits.
type NoPacer struct{}

func (NoPacer) Pace(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
