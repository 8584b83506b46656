package core

// DefaultSendRepeat is how many times a learned signal is transmitted per request
const DefaultSendRepeat = 10

// Send transmits the stored frame repeat times. Each decoded edge
// toggles the sender and status LED and holds the level for exactly
// that many microseconds; both outputs are driven low after every
// repetition. Runs with interrupts masked so the timing is undisturbed
// and no mode request is accepted mid-transmission.
// Returns false, after blinking OutcomeNothingToSend, when nothing has
// been learned yet.
func (d *Device) Send(repeat uint8) bool {
	b := d.Board
	if d.flags&FlagFrame == 0 {
		RecordEvent(EvtNothingSent, d.Clock.Now(), 0, 0)
		b.Report(OutcomeNothingToSend)
		return false
	}
	RecordEvent(EvtSend, d.Clock.Now(), uint32(d.frame.length), uint32(repeat))

	state := disableInterrupts()
	defer restoreInterrupts(state)

	b.setLED(false)
	b.setSender(false)
	for i := uint8(0); i < repeat; i++ {
		for j := 0; j < d.frame.Len(); j++ {
			b.toggleLED()
			b.toggleSender()
			b.Delay.DelayMicroseconds(uint32(d.frame.Get(j)))
		}
		b.setLED(false)
		b.setSender(false)
	}
	return true
}
