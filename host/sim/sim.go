// Package sim runs the firmware core on the host: a simulated GPIO bank
// whose receiver pin replays a recorded pulse train, a delay driver that
// moves simulated time forward, and a serial adapter for the console.
package sim

import (
	"sync"

	"irlearn/core"
)

// Pins is the pin map used by the simulator
var Pins = core.Pins{LED: 25, Sender: 15, Receiver: 14, Button: 13, Input: 12}

// PulseTrain toggles the receiver level at scripted times. Every read
// samples the level at the current clock value and then advances the
// clock by one step, standing in for the timer interrupt while the
// capture loop polls.
type PulseTrain struct {
	clock *core.TickClock
	edges []uint32
	next  int
	level bool
}

// NewPulseTrain schedules an edge after each duration, starting at the
// current clock value with the line idle (high).
func NewPulseTrain(clock *core.TickClock, durations []uint32) *PulseTrain {
	p := &PulseTrain{clock: clock, level: true}
	t := clock.Now()
	for _, d := range durations {
		t += d
		p.edges = append(p.edges, t)
	}
	return p
}

// Read returns the level at the current time and advances the clock
func (p *PulseTrain) Read() bool {
	now := p.clock.Now()
	for p.next < len(p.edges) && p.edges[p.next] <= now {
		p.level = !p.level
		p.next++
	}
	p.clock.Tick()
	return p.level
}

// Done reports whether every scheduled edge was played
func (p *PulseTrain) Done() bool {
	return p.next == len(p.edges)
}

// GPIO is a simulated GPIO bank
type GPIO struct {
	mu     sync.Mutex
	levels map[core.GPIOPin]bool
	toggle map[core.GPIOPin]int

	Receiver core.GPIOPin
	Signal   *PulseTrain
}

// NewGPIO returns a bank whose receiver pin is Pins.Receiver
func NewGPIO() *GPIO {
	return &GPIO{
		levels:   make(map[core.GPIOPin]bool),
		toggle:   make(map[core.GPIOPin]int),
		Receiver: Pins.Receiver,
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	return nil
}

func (g *GPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	g.mu.Lock()
	g.levels[pin] = true
	g.mu.Unlock()
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.levels[pin] != value {
		g.toggle[pin]++
	}
	g.levels[pin] = value
	return nil
}

func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	if pin == g.Receiver && g.Signal != nil {
		return g.Signal.Read()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

// Toggles returns how often pin changed level
func (g *GPIO) Toggles(pin core.GPIOPin) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.toggle[pin]
}

// Delay records requested waits and moves the clock forward by them
type Delay struct {
	mu     sync.Mutex
	clock  *core.TickClock
	waits  []uint32
	record bool
}

// NewDelay advances clock on every wait
func NewDelay(clock *core.TickClock) *Delay {
	return &Delay{clock: clock}
}

// DelayMicroseconds implements core.DelayDriver
func (d *Delay) DelayMicroseconds(us uint32) {
	d.clock.Advance(us / core.ClockStep)
	d.mu.Lock()
	if d.record {
		d.waits = append(d.waits, us)
	}
	d.mu.Unlock()
}

// Record starts collecting waits, dropping earlier ones
func (d *Delay) Record() {
	d.mu.Lock()
	d.waits = nil
	d.record = true
	d.mu.Unlock()
}

func (d *Delay) stop() {
	d.mu.Lock()
	d.record = false
	d.mu.Unlock()
}

// Waits returns the waits collected since Record
func (d *Delay) Waits() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint32(nil), d.waits...)
}

// Rig is a complete simulated device
type Rig struct {
	Clock  *core.TickClock
	GPIO   *GPIO
	Delay  *Delay
	EEPROM *core.MemoryEEPROM
	Device *core.Device
}

// EEPROMSize matches an AT24C32
const EEPROMSize = 4096

// NewRig builds a device on simulated hardware with an erased EEPROM
func NewRig() *Rig {
	return NewRigWithEEPROM(core.NewMemoryEEPROM(EEPROMSize))
}

// NewRigWithEEPROM builds a device on simulated hardware over mem
func NewRigWithEEPROM(mem *core.MemoryEEPROM) *Rig {
	r := &Rig{
		Clock:  core.NewTickClock(),
		GPIO:   NewGPIO(),
		EEPROM: mem,
	}
	r.Delay = NewDelay(r.Clock)
	board := &core.Board{GPIO: r.GPIO, Delay: r.Delay, Pins: Pins}
	r.Device = core.NewDevice(board, r.Clock, core.NewEEPROMStore(mem, 0))
	return r
}

// Play schedules durations on the receiver pin
func (r *Rig) Play(durations []uint32) *PulseTrain {
	r.GPIO.Signal = NewPulseTrain(r.Clock, durations)
	return r.GPIO.Signal
}

// Learn plays durations and runs one learning session
func (r *Rig) Learn(durations []uint32) core.CaptureState {
	r.Play(durations)
	return r.Device.Receive()
}

// Replay transmits the stored frame repeat times and returns the
// waits the sender held each level for.
func (r *Rig) Replay(repeat uint8) ([]uint32, bool) {
	r.Delay.Record()
	ok := r.Device.Send(repeat)
	r.Delay.stop()
	return r.Delay.Waits(), ok
}
