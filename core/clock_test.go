package core

import "testing"

func TestElapsed(t *testing.T) {
	testCases := []struct {
		later, earlier uint32
		expected       uint32
	}{
		{1000, 1000, 0},
		{1500, 1000, 500},
		{0, 4294967290, 5},
		{20, 4294967290, 25},
		{10, 4294967280, 25},
	}

	for _, tc := range testCases {
		if got := Elapsed(tc.later, tc.earlier); got != tc.expected {
			t.Errorf("Elapsed(%d, %d) = %d, expected %d", tc.later, tc.earlier, got, tc.expected)
		}
	}
}

func TestTickClockWraps(t *testing.T) {
	c := NewTickClock()
	c.Set(4294967280)

	c.Tick()
	if c.Now() != 4294967290 {
		t.Fatalf("Expected 4294967290, got %d", c.Now())
	}
	c.Tick()
	if c.Now() != 0 {
		t.Fatalf("Expected restart at 0, got %d", c.Now())
	}
	c.Tick()
	if c.Now() != 10 {
		t.Fatalf("Expected 10, got %d", c.Now())
	}
}

func TestTickClockAdvanceMatchesTick(t *testing.T) {
	starts := []uint32{0, 123450, 4294967000, 4294967280, 4294967290}
	steps := []uint32{0, 1, 2, 3, 29, 30, 31, 100}

	for _, start := range starts {
		for _, n := range steps {
			ticked := NewTickClock()
			ticked.Set(start)
			for i := uint32(0); i < n; i++ {
				ticked.Tick()
			}

			advanced := NewTickClock()
			advanced.Set(start)
			advanced.Advance(n)

			if ticked.Now() != advanced.Now() {
				t.Errorf("start %d, %d steps: Tick gives %d, Advance gives %d",
					start, n, ticked.Now(), advanced.Now())
			}
		}
	}
}

func TestTickClockReset(t *testing.T) {
	c := NewTickClock()
	c.Advance(1000)
	if c.Now() != 10000 {
		t.Fatalf("Expected 10000, got %d", c.Now())
	}
	c.Reset()
	if c.Now() != 0 {
		t.Errorf("Expected 0 after reset, got %d", c.Now())
	}
}
