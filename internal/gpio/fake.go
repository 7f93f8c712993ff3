package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/touch-tube/internal/logic"
)

// FakeLine records every value written to it.
type FakeLine struct {
	// Values contains every value that was set, in order.
	Values []int

	// SetError, if set, is returned when asserting the line (value 1).
	SetError error
}

// SetValue records the value.
func (f *FakeLine) SetValue(v int) error {
	if v == 1 && f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, v)
	return nil
}

// Level returns the last value set, 0 if none.
func (f *FakeLine) Level() int {
	if len(f.Values) == 0 {
		return 0
	}
	return f.Values[len(f.Values)-1]
}

// NewFakeActuatorLines returns an Actuator over two fake lines that does
// not sleep.
func NewFakeActuatorLines() (*Actuator, *FakeLine, *FakeLine) {
	open, cls := &FakeLine{}, &FakeLine{}
	a := NewActuator(open, cls, DefaultPulseWidth)
	a.sleep = func(time.Duration) {}
	return a, open, cls
}

// FakeActuator is a test double that records pulses.
type FakeActuator struct {
	// Pulses contains every channel pulsed, in order.
	Pulses []logic.Channel

	// PulseError, if set, will be returned by Pulse.
	PulseError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeActuator creates a FakeActuator.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{}
}

// Pulse records the channel.
func (f *FakeActuator) Pulse(ch logic.Channel) error {
	if f.PulseError != nil {
		return f.PulseError
	}
	f.Pulses = append(f.Pulses, ch)
	return nil
}

// Count returns how many times ch was pulsed.
func (f *FakeActuator) Count(ch logic.Channel) int {
	n := 0
	for _, p := range f.Pulses {
		if p == ch {
			n++
		}
	}
	return n
}

// Close marks the actuator as closed.
func (f *FakeActuator) Close() error {
	f.Closed = true
	return nil
}

// FakeComparator is a test double returning scripted comparator readings.
type FakeComparator struct {
	// Samples contains scripted readings (true = below reference).
	// Each call to Tripped() consumes the next sample; the last repeats.
	Samples []bool

	index int

	// Enabled reports whether the reference is currently powered.
	Enabled bool

	// Reads counts calls to Tripped.
	Reads int

	// ReadError, if set, will be returned by Tripped().
	ReadError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeComparator creates a FakeComparator with the given samples.
func NewFakeComparator(samples ...bool) *FakeComparator {
	return &FakeComparator{Samples: samples}
}

// EnableReference powers the fake reference.
func (f *FakeComparator) EnableReference() error {
	f.Enabled = true
	return nil
}

// Tripped returns the next scripted sample.
func (f *FakeComparator) Tripped() (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if !f.Enabled {
		return false, errors.New("reference not enabled")
	}
	if len(f.Samples) == 0 {
		return false, nil
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// DisableReference powers the fake reference down.
func (f *FakeComparator) DisableReference() error {
	f.Enabled = false
	return nil
}

// Close marks the comparator as closed.
func (f *FakeComparator) Close() error {
	f.Closed = true
	return nil
}
