package acquire

// FakeSource is a test double that delivers scripted deltas, one per
// StartOrContinue call.
type FakeSource struct {
	// Samples contains scripted deltas.
	// When exhausted, the last sample repeats.
	Samples []int16

	index    int
	delta    int16
	complete bool

	// Busy makes Idle report false.
	Busy bool

	// Starts counts StartOrContinue calls.
	Starts int
}

// NewFakeSource creates a FakeSource with the given deltas.
func NewFakeSource(samples ...int16) *FakeSource {
	return &FakeSource{Samples: samples}
}

// StartOrContinue completes the next scripted measurement.
func (f *FakeSource) StartOrContinue() {
	f.Starts++
	if len(f.Samples) == 0 || f.complete {
		return
	}
	if f.index < len(f.Samples) {
		f.delta = f.Samples[f.index]
		f.index++
	} else {
		f.delta = f.Samples[len(f.Samples)-1]
	}
	f.complete = true
}

// Complete reports whether a measurement is pending.
func (f *FakeSource) Complete() bool { return f.complete }

// ClearComplete acknowledges the measurement.
func (f *FakeSource) ClearComplete() { f.complete = false }

// Delta returns the last delivered delta.
func (f *FakeSource) Delta() int16 { return f.delta }

// Idle reports the inverse of Busy.
func (f *FakeSource) Idle() bool { return !f.Busy }

// Push appends deltas to the script.
func (f *FakeSource) Push(samples ...int16) {
	f.Samples = append(f.Samples, samples...)
}
