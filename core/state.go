package core

import "sync/atomic"

// Mode is the top-level device mode
type Mode uint32

const (
	ModeIdle Mode = iota
	ModeSending
	ModeReceiving
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeSending:
		return "sending"
	case ModeReceiving:
		return "receiving"
	}
	return "unknown"
}

// ModeCell holds the current mode. Interrupt handlers call Request;
// only the main loop calls Finish.
type ModeCell struct {
	mode uint32 // atomic Mode
}

// Load returns the current mode
func (c *ModeCell) Load() Mode {
	return Mode(atomic.LoadUint32(&c.mode))
}

// Request moves Idle to m. Requests made while another mode is active
// are dropped and Request returns false.
func (c *ModeCell) Request(m Mode) bool {
	if m == ModeIdle {
		return false
	}
	return atomic.CompareAndSwapUint32(&c.mode, uint32(ModeIdle), uint32(m))
}

// Finish returns the cell to Idle once the active engine completed
func (c *ModeCell) Finish() {
	atomic.StoreUint32(&c.mode, uint32(ModeIdle))
}

// PinChangeDetector is the body of the pin-change interrupt. It keeps
// the last sampled levels and turns falling edges on the active-low
// trigger inputs into mode requests.
type PinChangeDetector struct {
	mode       *ModeCell
	lastInput  bool
	lastButton bool
}

// NewPinChangeDetector starts with both inputs released (pulled high)
func NewPinChangeDetector(mode *ModeCell) *PinChangeDetector {
	return &PinChangeDetector{mode: mode, lastInput: true, lastButton: true}
}

// Handle processes the current levels of the input and button pins.
// The external input going low requests Sending; the button going low
// requests Receiving.
func (d *PinChangeDetector) Handle(input, button bool) {
	if input != d.lastInput && !input {
		d.request(ModeSending)
	}
	if button != d.lastButton && !button {
		d.request(ModeReceiving)
	}
	d.lastInput = input
	d.lastButton = button
}

func (d *PinChangeDetector) request(m Mode) {
	if !d.mode.Request(m) {
		RecordEvent(EvtModeDropped, 0, uint32(m), uint32(d.mode.Load()))
	}
}
