//go:build !tinygo

package core

import "sync/atomic"

// State is the saved interrupt state on regular Go
type State uintptr

// maskDepth counts nested critical sections so host tests can check
// that timing-sensitive paths ran masked.
var maskDepth int32

// disableInterrupts enters a critical section
func disableInterrupts() State {
	return State(atomic.AddInt32(&maskDepth, 1) - 1)
}

// restoreInterrupts leaves a critical section
func restoreInterrupts(state State) {
	atomic.StoreInt32(&maskDepth, int32(state))
}

// interruptsMasked reports whether a critical section is active
func interruptsMasked() bool {
	return atomic.LoadInt32(&maskDepth) > 0
}
