// Package ratelimit provides admission control for outbound upstream calls.
package ratelimit

import (
	"context"
	"sync/atomic"
)

// Gate is a counting admission gate bounding simultaneous in-flight
// operations. Unlike a mutex it admits up to N holders; unlike a plain
// atomic counter it blocks callers until a slot frees up.
//
// The pool manager uses a Gate to bound concurrent sign-in calls during a
// batch refresh. It guards outbound HTTP concurrency only, never pool
// state.
type Gate struct {
	slots    chan struct{}
	inFlight atomic.Int64
}

// NewGate creates a gate admitting at most limit concurrent holders.
// A limit below one is treated as one.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{
		slots: make(chan struct{}, limit),
	}
}

// Acquire blocks until a slot is available or the context is cancelled.
// On success the caller must Release exactly once.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		g.inFlight.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires a slot without blocking. Returns false when the gate
// is full. On success the caller must Release exactly once.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slots <- struct{}{}:
		g.inFlight.Add(1)
		return true
	default:
		return false
	}
}

// Release frees a slot acquired by Acquire or TryAcquire.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	<-g.slots
}

// InFlight returns the number of currently admitted holders.
func (g *Gate) InFlight() int64 {
	return g.inFlight.Load()
}

// Limit returns the configured concurrency limit.
func (g *Gate) Limit() int {
	return cap(g.slots)
}
