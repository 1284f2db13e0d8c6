// Package controller implements the Game Controller (C5) of spec.md §4.5:
// owns both boards, the piece-flow coordinator, three engine handles, and
// the stall machine, and drives the partner-board loop and the player's
// public operations. Grounded on the teacher's moveHandler request flow,
// generalized from one synchronous HTTP call into a standing game with a
// background partner-board loop.
package controller

import (
	"sync"
	"time"

	"github.com/shoxrux/bughouse-orchestrator/internal/stall"
)

// Clock is one independently-ticking countdown timer (spec.md §4.5/§4.6.1:
// "four independently ticking clocks"). While running it drains by elapsed
// wall-clock time, settled whenever it is read, independent of move
// commits, per the spec's Design Note that stalling is "do nothing" — a
// sitting bot's clock keeps draining even though no move is applied.
type Clock struct {
	mu        sync.Mutex
	remaining time.Duration
	running   bool
	lastTick  time.Time
}

// NewClock starts a stopped clock with the given initial allowance.
func NewClock(initial time.Duration) *Clock {
	return &Clock{remaining: initial}
}

// Start marks the clock as running from now.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.lastTick = time.Now()
}

// Stop pauses the clock, settling any elapsed time into remaining.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
	c.running = false
}

// Remaining reports time left, accounting for elapsed running time.
func (c *Clock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
	return c.remaining
}

func (c *Clock) settleLocked() {
	if !c.running {
		return
	}
	now := time.Now()
	elapsed := now.Sub(c.lastTick)
	c.remaining -= elapsed
	c.lastTick = now
}

// ClockSet bundles the four clocks named in spec.md §4.6.1's diagonal-time
// rule, keyed by stall.Entity.
type ClockSet struct {
	clocks map[stall.Entity]*Clock
}

// NewClockSet builds a ClockSet with one independent Clock per entity, all
// given the same initial allowance.
func NewClockSet(initial time.Duration) *ClockSet {
	cs := &ClockSet{clocks: make(map[stall.Entity]*Clock, 4)}
	for _, e := range []stall.Entity{stall.Human, stall.Partner, stall.Bot1, stall.Bot2} {
		cs.clocks[e] = NewClock(initial)
	}
	return cs
}

// Of returns the clock for a given entity.
func (cs *ClockSet) Of(e stall.Entity) *Clock {
	return cs.clocks[e]
}

// UpOnTime implements spec.md §4.6.1's diagonal-time rule: e is up on time
// iff its clock strictly exceeds its diagonal's. Entities with no diagonal
// (Human) are never "up on time" in the stalling sense.
func (cs *ClockSet) UpOnTime(e stall.Entity) bool {
	diag, ok := e.Diagonal()
	if !ok {
		return false
	}
	return cs.Of(e).Remaining() > cs.Of(diag).Remaining()
}
