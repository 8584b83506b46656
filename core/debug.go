package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a learning/replay event for post-mortem analysis.
// Capture runs in a tight polling loop, so it records events here
// instead of printing.
type Event struct {
	Kind   uint8  // Event kind code
	Clock  uint32 // Clock value at event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event kind codes
const (
	EvtCaptureStart = 1 // value1 = initial receiver level
	EvtOverflow     = 2 // frame restarted; value1 = gap, value2 = length before
	EvtHypothesis   = 3 // value1 = length, value2 = gap
	EvtConfirmed    = 4 // value1 = length, value2 = gap
	EvtTimeout      = 5 // value1 = length at timeout
	EvtSend         = 6 // value1 = length, value2 = repeat
	EvtNothingSent  = 7
	EvtModeDropped  = 8 // value1 = requested mode, value2 = current mode
)

const (
	EventRingSize = 32 // Keep the last 32 events
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]Event
	eventRingHead uint8

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output, dropping it if
// the queue is full. Falls back to DebugPrintln before InitAsyncDebug.
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	if debugChan == nil {
		DebugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent stores an event in the ring buffer. Non-blocking.
func RecordEvent(kind uint8, clock, value1, value2 uint32) {
	idx := eventRingHead
	eventRing[idx] = Event{
		Kind:   kind,
		Clock:  clock,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Kind == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns the printable name of an event kind
func EventName(kind uint8) string {
	switch kind {
	case EvtCaptureStart:
		return "CAPTURE_START"
	case EvtOverflow:
		return "OVERFLOW"
	case EvtHypothesis:
		return "HYPOTHESIS"
	case EvtConfirmed:
		return "CONFIRMED"
	case EvtTimeout:
		return "TIMEOUT"
	case EvtSend:
		return "SEND"
	case EvtNothingSent:
		return "NOTHING_SENT"
	case EvtModeDropped:
		return "MODE_DROPPED"
	}
	return "UNKNOWN"
}

// DumpEvents writes the event ring through the debug writer
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.Kind) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
