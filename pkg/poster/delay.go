package poster

import (
	"context"
	"math/rand"
	"time"
)

// DefaultDelay waits between 30 and 60 minutes.
var DefaultDelay = Delay{Min: 30 * time.Minute, Max: 60 * time.Minute}

type Delayer interface {
	Next() time.Duration
}

// Delay picks a uniformly random whole number of seconds in [Min, Max).
type Delay struct {
	Min time.Duration
	Max time.Duration
}

func (d Delay) Next() time.Duration {
	span := int64((d.Max - d.Min) / time.Second)
	if span <= 0 {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int63n(span))*time.Second
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
