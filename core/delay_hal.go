package core

// DelayDriver provides blocking delays. Implementations must busy-wait
// for at least the requested time and must not yield the processor.
type DelayDriver interface {
	DelayMicroseconds(us uint32)
}

func delayMS(d DelayDriver, ms uint32) {
	d.DelayMicroseconds(ms * 1000)
}
