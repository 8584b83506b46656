//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"irlearn/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// GetHardwareTime reads the low 32 bits of the 1MHz hardware timer
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// hwClock feeds a core.TickClock from the free-running hardware timer.
// Every read converts the microseconds passed since the previous read
// into whole clock steps; the remainder carries over.
type hwClock struct {
	ticks *core.TickClock
	last  uint32
}

func newHWClock() *hwClock {
	return &hwClock{ticks: core.NewTickClock(), last: GetHardwareTime()}
}

// Now implements core.Clock
func (c *hwClock) Now() uint32 {
	hw := GetHardwareTime()
	steps := (hw - c.last) / core.ClockStep
	if steps > 0 {
		c.ticks.Advance(steps)
		c.last += steps * core.ClockStep
	}
	return c.ticks.Now()
}

// Reset restarts the counter at zero
func (c *hwClock) Reset() {
	c.ticks.Reset()
	c.last = GetHardwareTime()
}

// busyDelay implements core.DelayDriver by spinning on the hardware
// timer. It keeps counting with interrupts masked.
type busyDelay struct{}

func (busyDelay) DelayMicroseconds(us uint32) {
	start := GetHardwareTime()
	for GetHardwareTime()-start < us {
	}
}
