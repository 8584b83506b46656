package core

import "testing"

func TestBlink(t *testing.T) {
	testCases := []struct {
		repeat  uint8
		toggles int
	}{
		{1, 1},
		{2, 3},
		{5, 9},
	}

	for _, tc := range testCases {
		gpio := NewMockGPIODriver()
		delay := &recordingDelay{}
		b := &Board{GPIO: gpio, Delay: delay, Pins: testPins}
		if err := b.Configure(); err != nil {
			t.Fatalf("Configure failed: %v", err)
		}
		gpio.writes = nil

		b.Blink(300, tc.repeat)

		led := gpio.writesTo(testPins.LED)
		if len(led) != tc.toggles+1 {
			t.Errorf("repeat %d: expected %d LED writes, got %d", tc.repeat, tc.toggles+1, len(led))
			continue
		}
		if !led[0] || led[len(led)-1] {
			t.Errorf("repeat %d: LED should start on and end off, got %v", tc.repeat, led)
		}
		for i, d := range delay.delays {
			if d != 150000 {
				t.Errorf("repeat %d: delay %d was %d, expected 150000", tc.repeat, i, d)
			}
			if !delay.masked[i] {
				t.Errorf("repeat %d: delay %d ran with interrupts enabled", tc.repeat, i)
			}
		}
	}
}

func TestBlinkZeroIsNoop(t *testing.T) {
	gpio := NewMockGPIODriver()
	b := &Board{GPIO: gpio, Delay: &recordingDelay{}, Pins: testPins}
	b.Blink(300, 0)
	if len(gpio.writes) != 0 {
		t.Errorf("Expected no writes, got %d", len(gpio.writes))
	}
}

func TestBoardConfigure(t *testing.T) {
	gpio := NewMockGPIODriver()
	b := &Board{GPIO: gpio, Delay: &recordingDelay{}, Pins: testPins}
	if err := b.Configure(); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if b.BlinkInterval != DefaultBlinkInterval {
		t.Errorf("Expected default interval, got %d", b.BlinkInterval)
	}
	for _, pin := range []GPIOPin{testPins.LED, testPins.Sender} {
		if !gpio.outputs[pin] || gpio.levels[pin] {
			t.Errorf("Pin %d should be a low output", pin)
		}
	}
	for _, pin := range []GPIOPin{testPins.Receiver, testPins.Button, testPins.Input} {
		if !gpio.inputs[pin] {
			t.Errorf("Pin %d should be a pulled-up input", pin)
		}
	}
}

func TestReportUsesBoardInterval(t *testing.T) {
	delay := &recordingDelay{}
	b := &Board{GPIO: NewMockGPIODriver(), Delay: delay, Pins: testPins, BlinkInterval: 100}
	b.Report(OutcomeFirstRun)
	if len(delay.delays) != 3 || delay.delays[0] != 50000 {
		t.Errorf("Unexpected delays %v", delay.delays)
	}
}
