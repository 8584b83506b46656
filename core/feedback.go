package core

// Outcome is a user-visible result reported by blinking the status LED.
// The value is the number of blinks.
type Outcome uint8

const (
	OutcomeFirstRun      Outcome = 2 // configuration missing or invalid at boot
	OutcomeNothingToSend Outcome = 3 // send requested before anything was learned
	OutcomeConfirmed     Outcome = 4 // a signal was learned and stored
	OutcomeTimeout       Outcome = 5 // learning gave up
)

// DefaultBlinkInterval is the blink period in milliseconds
const DefaultBlinkInterval = 300

// Board bundles the hardware ports used by the engines
type Board struct {
	GPIO  GPIODriver
	Delay DelayDriver
	Pins  Pins

	// BlinkInterval is the full on+off blink period in milliseconds
	BlinkInterval uint32

	led    bool
	sender bool
}

// Configure sets up the board pins
func (b *Board) Configure() error {
	if b.BlinkInterval == 0 {
		b.BlinkInterval = DefaultBlinkInterval
	}
	b.led, b.sender = false, false
	return b.Pins.configure(b.GPIO)
}

func (b *Board) setLED(on bool) {
	b.led = on
	_ = b.GPIO.SetPin(b.Pins.LED, on)
}

func (b *Board) toggleLED() {
	b.setLED(!b.led)
}

func (b *Board) setSender(on bool) {
	b.sender = on
	_ = b.GPIO.SetPin(b.Pins.Sender, on)
}

func (b *Board) toggleSender() {
	b.setSender(!b.sender)
}

// Blink flashes the status LED repeat times with the given period.
// The LED starts on and is toggled 2*repeat-1 times, so it ends off.
// Runs with interrupts masked.
func (b *Board) Blink(intervalMS uint32, repeat uint8) {
	if repeat == 0 {
		return
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	half := intervalMS >> 1
	toggles := int(repeat)*2 - 1
	b.setLED(true)
	for i := 0; i < toggles; i++ {
		delayMS(b.Delay, half)
		b.toggleLED()
	}
}

// Report blinks the pattern for an outcome
func (b *Board) Report(o Outcome) {
	b.Blink(b.BlinkInterval, uint8(o))
}
