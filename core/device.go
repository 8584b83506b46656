package core

import "errors"

// Device owns the learned frame and the mode cell, and dispatches the
// capture and replay engines from the main loop.
type Device struct {
	Board *Board
	Clock Clock
	Store ConfigStore

	// Repeat is the number of transmissions per send request
	Repeat uint8

	mode    ModeCell
	pins    *PinChangeDetector
	console *Console

	flags uint8
	frame Frame

	// Panics recovered by Run
	Faults uint32
}

// clockResetter is implemented by clocks that restart at boot
type clockResetter interface {
	Reset()
}

// NewDevice wires a device to its board, clock and configuration store
func NewDevice(board *Board, clock Clock, store ConfigStore) *Device {
	d := &Device{
		Board:  board,
		Clock:  clock,
		Store:  store,
		Repeat: DefaultSendRepeat,
	}
	d.pins = NewPinChangeDetector(&d.mode)
	return d
}

// Boot configures the pins and loads the persisted configuration.
// An invalid record is replaced by defaults and reported with
// OutcomeFirstRun. Boot runs with interrupts masked.
func (d *Device) Boot() error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	d.frame.Clear()
	d.mode.Finish()
	if err := d.Board.Configure(); err != nil {
		return err
	}

	cfg, err := d.Store.Load()
	switch {
	case err == nil:
		d.flags = cfg.Flags
		d.frame = cfg.Frame
	case errors.Is(err, ErrFrameCorrupt):
		// Header is ours but the frame blob is not usable
		DebugPrintln("config: stored frame corrupt, forgetting it")
		d.flags = DefaultFlags
		if cfg != nil {
			d.flags = cfg.Flags &^ FlagFrame
		}
		if err := d.Store.SaveMeta(d.flags); err != nil {
			return err
		}
	case errors.Is(err, ErrConfigInvalid):
		DebugPrintln("config: first run, writing defaults")
		d.Board.Report(OutcomeFirstRun)
		d.flags = DefaultFlags
		if err := d.Store.SaveMeta(d.flags); err != nil {
			return err
		}
	default:
		return err
	}

	if c, ok := d.Clock.(clockResetter); ok {
		c.Reset()
	}
	return nil
}

// restoreFrame reloads the persisted frame, or empties the working
// frame when nothing is stored.
func (d *Device) restoreFrame() {
	if d.flags&FlagFrame == 0 {
		d.frame.Clear()
		return
	}
	if err := d.Store.LoadFrame(&d.frame); err != nil {
		DebugPrintln("config: reload frame failed: " + err.Error())
		d.flags &^= FlagFrame
		d.frame.Clear()
	}
}

// Mode returns the current device mode
func (d *Device) Mode() Mode {
	return d.mode.Load()
}

// Request asks for a mode transition; it is honored only while Idle
func (d *Device) Request(m Mode) bool {
	return d.mode.Request(m)
}

// PinChange is called from the pin-change interrupt with the current
// levels of the input and button pins.
func (d *Device) PinChange(input, button bool) {
	d.pins.Handle(input, button)
}

// Flags returns the persisted flags byte
func (d *Device) Flags() uint8 {
	return d.flags
}

// Frame returns the device frame. Callers must only read it while the
// device is Idle.
func (d *Device) Frame() *Frame {
	return &d.frame
}

// AttachConsole lets the main loop serve console commands while Idle
func (d *Device) AttachConsole(c *Console) {
	d.console = c
}

// Step runs one main loop iteration
func (d *Device) Step() {
	switch d.mode.Load() {
	case ModeIdle:
		if d.console != nil {
			d.console.Poll()
		}
	case ModeReceiving:
		d.Receive()
		d.mode.Finish()
	case ModeSending:
		d.Send(d.Repeat)
		d.mode.Finish()
	}
}

// Run is the main loop. It never returns; a panic in an engine is
// counted and the device goes back to Idle.
func (d *Device) Run() {
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.Faults++
					d.mode.Finish()
					DebugPrintln("fault " + utoa(d.Faults) + ", back to idle")
					DumpEvents()
				}
			}()
			d.Step()
		}()
	}
}
