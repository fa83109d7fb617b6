// internal/engine/guards.go
package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

/*
 * Concurrency guards.
 *
 * Three independent guards make the engine safe under overlapping triggers:
 *
 *   - reentrancyGuard: at most one decision cycle in flight. A trigger
 *     arriving mid-cycle is dropped, not queued; the in-flight cycle's
 *     result is authoritative for the state at the time it started.
 *   - navGuard: at most one transition per cooldown window. Two decisions
 *     in rapid succession (identity update, then the route update it
 *     causes) issue a single transition.
 *   - livenessGuard: after Close, in-flight continuations become no-ops so
 *     stale fetch results are discarded instead of applied.
 *
 * All three are private, in-memory flags local to one engine instance.
 * Exactly one engine instance exists per active user session, so no
 * cross-instance locking is needed.
 */

// reentrancyGuard admits one holder at a time without blocking.
type reentrancyGuard struct {
	busy atomic.Bool
}

// tryAcquire claims the guard. Returns false when a cycle is already in
// flight; the caller must drop, not queue.
func (g *reentrancyGuard) tryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// release frees the guard for the next cycle.
func (g *reentrancyGuard) release() {
	g.busy.Store(false)
}

// navGuard permits one transition per cooldown window.
type navGuard struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	lastNav  time.Time
}

func newNavGuard(cooldown time.Duration, now func() time.Time) *navGuard {
	if now == nil {
		now = time.Now
	}
	return &navGuard{cooldown: cooldown, now: now}
}

// tryNavigate claims a transition slot. Returns false inside the cooldown
// window following a previous transition.
func (g *navGuard) tryNavigate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now()
	if !g.lastNav.IsZero() && t.Sub(g.lastNav) < g.cooldown {
		return false
	}
	g.lastNav = t
	return true
}

// livenessGuard marks the engine instance dead after teardown.
type livenessGuard struct {
	closed atomic.Bool
}

// close marks the instance dead. Idempotent; returns false when already closed.
func (g *livenessGuard) close() bool {
	return g.closed.CompareAndSwap(false, true)
}

// alive reports whether continuations may still mutate engine state.
func (g *livenessGuard) alive() bool {
	return !g.closed.Load()
}
