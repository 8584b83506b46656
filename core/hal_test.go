package core

// Test doubles for the HAL ports

var testPins = Pins{LED: 0, Sender: 1, Receiver: 2, Button: 3, Input: 4}

type pinWrite struct {
	pin   GPIOPin
	value bool
}

// MockGPIODriver records outputs and serves the receiver pin from a
// scripted pulse train.
type MockGPIODriver struct {
	outputs map[GPIOPin]bool
	inputs  map[GPIOPin]bool
	levels  map[GPIOPin]bool
	writes  []pinWrite

	receiver GPIOPin
	signal   *pulseSource
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		outputs:  make(map[GPIOPin]bool),
		inputs:   make(map[GPIOPin]bool),
		levels:   make(map[GPIOPin]bool),
		receiver: testPins.Receiver,
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.inputs[pin] = true
	m.levels[pin] = true
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.levels[pin] = value
	m.writes = append(m.writes, pinWrite{pin, value})
	return nil
}

func (m *MockGPIODriver) ReadPin(pin GPIOPin) bool {
	if pin == m.receiver && m.signal != nil {
		return m.signal.read()
	}
	return m.levels[pin]
}

// writesTo returns the values written to pin, in order
func (m *MockGPIODriver) writesTo(pin GPIOPin) []bool {
	var out []bool
	for _, w := range m.writes {
		if w.pin == pin {
			out = append(out, w.value)
		}
	}
	return out
}

// pulseSource toggles a level at scripted times. Every read samples
// the level at the current clock value and then advances the clock by
// one tick, standing in for the timer interrupt firing while the
// capture loop polls.
type pulseSource struct {
	clock *TickClock
	edges []uint32 // absolute edge times
	next  int
	level bool
}

// newPulseSource schedules an edge after each duration, starting at start
func newPulseSource(clock *TickClock, start uint32, initial bool, durations []uint32) *pulseSource {
	s := &pulseSource{clock: clock, level: initial}
	t := start
	for _, d := range durations {
		t += d
		s.edges = append(s.edges, t)
	}
	return s
}

func (s *pulseSource) read() bool {
	now := s.clock.Now()
	for s.next < len(s.edges) && s.edges[s.next] <= now {
		s.level = !s.level
		s.next++
	}
	s.clock.Tick()
	return s.level
}

// recordingDelay records every requested delay and whether it ran
// inside a critical section.
type recordingDelay struct {
	delays []uint32
	masked []bool
}

func (r *recordingDelay) DelayMicroseconds(us uint32) {
	r.delays = append(r.delays, us)
	r.masked = append(r.masked, interruptsMasked())
}

func (r *recordingDelay) reset() {
	r.delays = nil
	r.masked = nil
}

type testRig struct {
	gpio   *MockGPIODriver
	delay  *recordingDelay
	clock  *TickClock
	eeprom *MemoryEEPROM
	store  *EEPROMStore
	board  *Board
	dev    *Device
}

func newTestRig() *testRig {
	r := &testRig{
		gpio:   NewMockGPIODriver(),
		delay:  &recordingDelay{},
		clock:  NewTickClock(),
		eeprom: NewMemoryEEPROM(512),
	}
	r.store = NewEEPROMStore(r.eeprom, 0)
	r.board = &Board{GPIO: r.gpio, Delay: r.delay, Pins: testPins}
	r.dev = NewDevice(r.board, r.clock, r.store)
	return r
}

// play schedules durations on the receiver, starting now
func (r *testRig) play(durations []uint32) {
	r.gpio.signal = newPulseSource(r.clock, r.clock.Now(), true, durations)
}

// frameOf builds a frame from durations, failing the caller on overflow
func frameOf(durations ...uint16) *Frame {
	f := &Frame{}
	for _, d := range durations {
		if !f.Add(d) {
			panic("frameOf: frame full")
		}
	}
	return f
}
