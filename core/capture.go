package core

// Capture tuning
const (
	MinPulses      = 20       // Edges a repetition needs before a gap can end it
	MinTime        = 70       // Shorter edges are treated as glitches
	MinGap         = 3000     // Silence between two repetitions of a code
	CaptureTimeout = 10000000 // Learning session limit in microseconds
)

// CaptureState is the state of a learning session
type CaptureState uint8

const (
	CaptureSampling  CaptureState = iota // collecting the first repetition
	CaptureComparing                     // a candidate is recorded, waiting for a matching repetition
	CaptureConfirmed                     // two matching repetitions seen
	CaptureTimedOut                      // session expired
)

// String returns the state name
func (s CaptureState) String() string {
	switch s {
	case CaptureSampling:
		return "sampling"
	case CaptureComparing:
		return "comparing"
	case CaptureConfirmed:
		return "confirmed"
	case CaptureTimedOut:
		return "timed out"
	}
	return "unknown"
}

// CaptureSession runs the repeat-confirmation protocol over a stream of
// edge durations. A repetition ends at a long gap once enough edges are
// collected; the first such repetition becomes the candidate and a
// later one with the same edge count and a matching gap confirms it.
type CaptureSession struct {
	frame *Frame
	state CaptureState

	prevLength uint16
	prevGap    uint16
}

// NewCaptureSession clears frame and starts sampling into it
func NewCaptureSession(frame *Frame) *CaptureSession {
	frame.Clear()
	return &CaptureSession{frame: frame, state: CaptureSampling}
}

// State returns the current session state
func (s *CaptureSession) State() CaptureState {
	return s.state
}

// Candidate returns the edge count and gap of the recorded candidate
func (s *CaptureSession) Candidate() (length int, gap uint16, ok bool) {
	return int(s.prevLength), s.prevGap, s.state == CaptureComparing
}

// HandleEdge processes the time since the previous edge
func (s *CaptureSession) HandleEdge(gap uint32) CaptureState {
	if s.state == CaptureConfirmed || s.state == CaptureTimedOut {
		return s.state
	}

	t := uint16(0xFFFF)
	if gap < 0xFFFF {
		t = uint16(gap)
	}

	if t >= MinTime {
		if !s.frame.Add(t) {
			// Table or sequence full: resync on this edge
			RecordEvent(EvtOverflow, 0, uint32(t), uint32(s.frame.length))
			s.frame.Clear()
			s.frame.Add(t)
		}
	}

	if s.frame.length >= MinPulses && t > MinGap {
		if s.state == CaptureComparing && s.prevLength == s.frame.length &&
			TimeMatch(uint32(s.prevGap), uint32(t)) {
			s.state = CaptureConfirmed
			return s.state
		}
		RecordEvent(EvtHypothesis, 0, uint32(s.frame.length), uint32(t))
		s.prevLength = s.frame.length
		s.prevGap = t
		s.state = CaptureComparing
		s.frame.Clear()
	}
	return s.state
}

// expire ends the session without a result
func (s *CaptureSession) expire() {
	s.state = CaptureTimedOut
}

// Receive runs one learning session: it polls the receiver pin until a
// signal is confirmed or CaptureTimeout passes. A confirmed frame is
// persisted; on timeout the last persisted frame is restored.
func (d *Device) Receive() CaptureState {
	b := d.Board
	start := d.Clock.Now()
	lastIn := b.GPIO.ReadPin(b.Pins.Receiver)
	lastTime := start

	session := NewCaptureSession(&d.frame)
	RecordEvent(EvtCaptureStart, start, boolToU32(lastIn), 0)

	for {
		now := d.Clock.Now()
		in := b.GPIO.ReadPin(b.Pins.Receiver)

		if in == lastIn {
			if Elapsed(now, start) > CaptureTimeout {
				session.expire()
				b.setLED(false)
				d.captureTimeout(now)
				return session.State()
			}
			continue
		}

		b.toggleLED()
		gap := Elapsed(now, lastTime)
		lastIn = in
		lastTime = now

		if session.HandleEdge(gap) == CaptureConfirmed {
			b.setLED(false)
			d.captureConfirmed(now)
			return session.State()
		}
	}
}

func (d *Device) captureConfirmed(now uint32) {
	RecordEvent(EvtConfirmed, now, uint32(d.frame.length), 0)
	d.Board.Report(OutcomeConfirmed)

	d.flags |= FlagFrame
	if err := d.Store.SaveMeta(d.flags); err != nil {
		DebugPrintln("capture: save meta failed: " + err.Error())
		return
	}
	if err := d.Store.SaveFrame(&d.frame); err != nil {
		DebugPrintln("capture: save frame failed: " + err.Error())
		return
	}
	DebugAsync("capture: learned " + itoa(d.frame.Len()) + " edges, " +
		itoa(d.frame.TimesCount()) + " durations")
}

func (d *Device) captureTimeout(now uint32) {
	RecordEvent(EvtTimeout, now, uint32(d.frame.length), 0)
	d.Board.Report(OutcomeTimeout)
	d.restoreFrame()
	DebugAsync("capture: timed out")
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
