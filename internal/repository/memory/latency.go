package memory

import (
	"context"
	"time"
)

// Simulated I/O latency per operation, all inside the 200–400ms band.
const (
	latencyGetAll        = 300 * time.Millisecond
	latencyGetByID       = 200 * time.Millisecond
	latencyGetByClientID = 250 * time.Millisecond
	latencyCreate        = 400 * time.Millisecond
	latencyUpdate        = 300 * time.Millisecond
	latencyUpdateStatus  = 250 * time.Millisecond
	latencyAddMessage    = 200 * time.Millisecond
	latencyDocument      = 200 * time.Millisecond
	latencyDelete        = 200 * time.Millisecond
)

// Latency scales the simulated delay. Scale 0 turns it off.
type Latency struct {
	Scale float64
}

// wait blocks for base*Scale or until ctx is done. It never holds a lock,
// so concurrent calls interleave while they wait.
func (l Latency) wait(ctx context.Context, base time.Duration) error {
	d := time.Duration(float64(base) * l.Scale)
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

// clock hands out timestamps for one store. Stamps for the same entity
// strictly increase even when the wall clock has not moved.
type clock struct {
	now func() time.Time
}

func (c clock) stamp() time.Time {
	return c.now().UTC()
}

func (c clock) after(prev time.Time) time.Time {
	t := c.stamp()
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}
