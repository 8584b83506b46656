package core

import "sync/atomic"

// Clock constants
const (
	ClockStep = 10         // Microseconds added per timer tick
	ClockMax  = 4294967295 // Largest representable counter value
)

// Clock is a free-running microsecond counter read by the main loop.
type Clock interface {
	Now() uint32
}

// TickClock is the reference Clock: a counter advanced by a periodic
// timer callback. Tick/Advance are called only from the tick source;
// Now may be called from anywhere.
type TickClock struct {
	micros uint32 // atomic
}

// NewTickClock returns a clock that starts at zero.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Reset restarts the counter at zero (boot)
func (c *TickClock) Reset() {
	atomic.StoreUint32(&c.micros, 0)
}

// Tick advances the counter by one step, restarting at zero when the
// next step would pass ClockMax.
func (c *TickClock) Tick() {
	atomic.StoreUint32(&c.micros, nextTick(atomic.LoadUint32(&c.micros)))
}

// Advance applies steps ticks at once. Targets that derive ticks from a
// free-running hardware timer call this with the number of whole steps
// that passed since the previous call.
func (c *TickClock) Advance(steps uint32) {
	if steps == 0 {
		return
	}
	v := atomic.LoadUint32(&c.micros)
	for steps > 0 {
		if v > ClockMax-ClockStep {
			v = 0
			steps--
			continue
		}
		// plain increments left before the restart point
		room := (ClockMax-ClockStep-v)/ClockStep + 1
		if steps <= room {
			v += steps * ClockStep
			break
		}
		v += room * ClockStep
		steps -= room
	}
	atomic.StoreUint32(&c.micros, v)
}

// Set forces the counter value (tests and simulation)
func (c *TickClock) Set(micros uint32) {
	atomic.StoreUint32(&c.micros, micros)
}

// Now returns the current counter value
func (c *TickClock) Now() uint32 {
	return atomic.LoadUint32(&c.micros)
}

func nextTick(v uint32) uint32 {
	if v > ClockMax-ClockStep {
		return 0
	}
	return v + ClockStep
}

// Elapsed returns the time from earlier to later, correct across a
// single counter wraparound.
func Elapsed(later, earlier uint32) uint32 {
	if later >= earlier {
		return later - earlier
	}
	return ClockMax - (earlier - later)
}
