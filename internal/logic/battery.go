package logic

import (
	"sync/atomic"
	"time"
)

// BatteryMonitor samples the voltage comparator and latches a low reading
// for the rest of the power cycle.
type BatteryMonitor struct {
	comparator Comparator
	settle     time.Duration
	delay      func(time.Duration)
	low        atomic.Bool

	// OnError is called with comparator errors; the sample counts as good.
	OnError func(error)
}

// NewBatteryMonitor creates a monitor. delay waits out the reference
// settle time; pass nil in tests to skip waiting.
func NewBatteryMonitor(c Comparator, settle time.Duration, delay func(time.Duration)) *BatteryMonitor {
	if delay == nil {
		delay = func(time.Duration) {}
	}
	return &BatteryMonitor{
		comparator: c,
		settle:     settle,
		delay:      delay,
	}
}

// Low reports whether a low voltage has been latched.
func (b *BatteryMonitor) Low() bool {
	return b.low.Load()
}

// Check powers the reference, samples the comparator and powers it down
// again. It returns true only on the sample that latches the low state.
func (b *BatteryMonitor) Check() bool {
	if b.low.Load() || b.comparator == nil {
		return false
	}

	if err := b.comparator.EnableReference(); err != nil {
		b.report(err)
		b.disable()
		return false
	}
	b.delay(b.settle)
	tripped, err := b.comparator.Tripped()
	b.disable()
	if err != nil {
		b.report(err)
		return false
	}
	if !tripped {
		return false
	}
	b.low.Store(true)
	return true
}

func (b *BatteryMonitor) disable() {
	if err := b.comparator.DisableReference(); err != nil {
		b.report(err)
	}
}

func (b *BatteryMonitor) report(err error) {
	if b.OnError != nil {
		b.OnError(err)
	}
}
