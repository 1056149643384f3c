package services

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// inFlightGuard admits at most one outstanding call per flow. A second caller
// is turned away instead of queued.
type inFlightGuard struct {
	sem  *semaphore.Weighted
	held atomic.Bool
}

func newInFlightGuard() *inFlightGuard {
	return &inFlightGuard{sem: semaphore.NewWeighted(1)}
}

// tryEnter claims the slot. The returned release must be called exactly once.
func (g *inFlightGuard) tryEnter() (release func(), ok bool) {
	if !g.sem.TryAcquire(1) {
		return nil, false
	}
	g.held.Store(true)

	var once atomic.Bool
	return func() {
		if once.Swap(true) {
			return
		}
		g.held.Store(false)
		g.sem.Release(1)
	}, true
}

// busy reports whether a call currently holds the slot.
func (g *inFlightGuard) busy() bool {
	return g.held.Load()
}
