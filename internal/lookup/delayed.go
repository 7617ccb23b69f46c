package lookup

import (
	"context"
	"time"
)

// Delayed wraps a Service with a fixed latency before every lookup,
// standing in for a slow remote database.
type Delayed struct {
	next  Service
	delay time.Duration
}

// NewDelayed returns svc with delay added to every call. A non-positive
// delay returns svc unchanged.
func NewDelayed(svc Service, delay time.Duration) Service {
	if delay <= 0 {
		return svc
	}
	return &Delayed{next: svc, delay: delay}
}

// Lookup waits for the delay, then delegates. Returns ctx.Err() if the
// context ends first.
func (d *Delayed) Lookup(ctx context.Context, key string) (Result, error) {
	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
	}
	return d.next.Lookup(ctx, key)
}
