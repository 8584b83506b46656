package core

import "testing"

func TestSendNothingLearned(t *testing.T) {
	rig := newTestRig()
	if err := rig.dev.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	rig.delay.reset()
	rig.gpio.writes = nil

	if rig.dev.Send(DefaultSendRepeat) {
		t.Fatal("Send should report nothing to send")
	}
	// OutcomeNothingToSend: 3 blinks
	if len(rig.delay.delays) != 5 {
		t.Errorf("Expected 5 blink delays, got %d", len(rig.delay.delays))
	}
	if len(rig.gpio.writesTo(testPins.Sender)) != 0 {
		t.Error("Sender must stay untouched")
	}
}

func TestSendRepeats(t *testing.T) {
	rig := newTestRig()
	_ = rig.dev.Boot()
	rig.dev.frame = *frameOf(9000, 4500, 560, 560)
	rig.dev.flags = FlagFrame
	rig.delay.reset()
	rig.gpio.writes = nil

	if !rig.dev.Send(3) {
		t.Fatal("Send failed")
	}

	expected := []uint32{9000, 4500, 560, 560}
	if len(rig.delay.delays) != 3*len(expected) {
		t.Fatalf("Expected %d delays, got %d", 3*len(expected), len(rig.delay.delays))
	}
	for i, d := range rig.delay.delays {
		if d != expected[i%len(expected)] {
			t.Errorf("Delay %d: expected %d, got %d", i, expected[i%len(expected)], d)
		}
	}

	// low, then per repetition: 4 toggles and a final low
	sender := rig.gpio.writesTo(testPins.Sender)
	want := []bool{false}
	for i := 0; i < 3; i++ {
		want = append(want, true, false, true, false, false)
	}
	if len(sender) != len(want) {
		t.Fatalf("Expected %d sender writes, got %d", len(want), len(sender))
	}
	for i := range want {
		if sender[i] != want[i] {
			t.Errorf("Sender write %d: expected %v, got %v", i, want[i], sender[i])
		}
	}

	if interruptsMasked() {
		t.Error("Interrupts left masked after Send")
	}
}

func TestSendOddLengthEndsLow(t *testing.T) {
	rig := newTestRig()
	_ = rig.dev.Boot()
	rig.dev.frame = *frameOf(560, 560, 560)
	rig.dev.flags = FlagFrame
	rig.gpio.writes = nil

	rig.dev.Send(1)
	if rig.gpio.levels[testPins.Sender] || rig.gpio.levels[testPins.LED] {
		t.Error("Sender and LED must be low after a repetition")
	}
}
