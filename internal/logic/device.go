package logic

import (
	"sync"
	"sync/atomic"
	"time"
)

// Device ties the classifier, the press state machine, the guards and the
// actuator together.
//
// Tick is the timer context and may run on its own goroutine. ProcessSample,
// Snapshot and DrainEvents belong to the main cycle. mu is held for every
// multi-step sequence both sides can reach: the tick body and actuation.
type Device struct {
	cfg        Config
	timing     SharedTimingState
	classifier *Classifier
	debouncer  *Debouncer
	battery    *BatteryMonitor
	actuator   Actuator
	now        func() time.Time

	halted atomic.Bool

	mu      sync.Mutex
	tube    TubeState
	counts  EventCounts
	pending []Event

	// OnActuatorError is called when a pulse fails.
	OnActuatorError func(ch Channel, err error)
}

// NewDevice creates a device in its power-on state: waiting for a press,
// tube off, default thresholds, battery good.
func NewDevice(cfg Config, actuator Actuator, battery *BatteryMonitor, now func() time.Time) *Device {
	if now == nil {
		now = time.Now
	}
	d := &Device{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Classifier),
		battery:    battery,
		actuator:   actuator,
		now:        now,
		tube:       TubeOff,
	}
	d.debouncer = NewDebouncer(cfg.MinPressTicks, cfg.MaxPressTicks, &d.timing)
	return d
}

// Timing exposes the shared counters for inspection.
func (d *Device) Timing() *SharedTimingState {
	return &d.timing
}

// Halted reports whether the device reached its terminal state.
func (d *Device) Halted() bool {
	return d.halted.Load()
}

// Start drives the tube closed once so the hardware matches the initial
// OFF state.
func (d *Device) Start() {
	if !d.cfg.CloseOnStartup {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pulse(ChannelClose)
	d.timing.armFreeze()
	d.record(EventTubeOff, ReasonStartup)
}

// Tick advances every timer by one period and runs the auto-off and
// battery rules. Once halted, ticks are ignored.
func (d *Device) Tick() {
	if d.halted.Load() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timing.advance(d.cfg.FreezeTicks)

	if d.timing.autoOffDue(d.cfg.AutoOffTicks) {
		d.counts.AutoOff++
		d.toggle(ReasonAutoOff)
	}

	if d.battery != nil && d.timing.batteryDue(d.cfg.BatteryTicks) {
		if d.battery.Check() {
			d.record(EventBatteryLow, "")
		}
	}
}

// ProcessSample runs one completed acquisition through the classifier and
// the press state machine and toggles the tube on a valid press.
func (d *Device) ProcessSample(sample int16) Outcome {
	if d.halted.Load() {
		return OutcomeNone
	}

	// The classifier runs even while frozen so its running value keeps up.
	edge := d.classifier.Classify(sample)

	// Held across the step so an actuation from the tick handler cannot
	// land between the freeze check and the transition.
	d.mu.Lock()
	defer d.mu.Unlock()

	// No transition of any kind while the freeze guard is active.
	if d.timing.Frozen() {
		return OutcomeNone
	}

	outcome := d.debouncer.Step(edge)
	switch outcome {
	case OutcomeBounce:
		d.counts.Bounces++
		d.record(EventBounce, "")
	case OutcomeTimeout:
		d.counts.PressTimeouts++
		d.record(EventPressTimeout, "")
	case OutcomePress:
		d.classifier.Threshold().PressCompleted()
		d.counts.Presses++
		d.record(EventPress, ReasonTouch)
		d.toggle(ReasonTouch)
	}
	return outcome
}

// toggle flips the tube. An ON request with a latched low battery halts
// the device instead. Caller must hold mu.
func (d *Device) toggle(reason string) {
	if d.tube == TubeOff {
		if d.battery != nil && d.battery.Low() {
			d.halt()
			return
		}
		if d.pulse(ChannelOpen) {
			d.tube = TubeOn
			d.timing.tubeOn.Store(true)
			d.counts.TubeOn++
			d.record(EventTubeOn, reason)
		}
	} else {
		if d.pulse(ChannelClose) {
			d.tube = TubeOff
			d.timing.tubeOn.Store(false)
			d.counts.TubeOff++
			d.record(EventTubeOff, reason)
		}
	}
	// The line may have moved even when the driver reported an error.
	d.timing.armFreeze()
	d.timing.actuatorOnDuration.Store(0)
}

func (d *Device) halt() {
	d.halted.Store(true)
	d.record(EventHalted, "")
}

func (d *Device) pulse(ch Channel) bool {
	if d.actuator == nil {
		return true
	}
	if err := d.actuator.Pulse(ch); err != nil {
		if d.OnActuatorError != nil {
			d.OnActuatorError(ch, err)
		}
		return false
	}
	return true
}

// record queues an event for the main cycle. Caller must hold mu.
func (d *Device) record(t EventType, reason string) {
	d.pending = append(d.pending, Event{
		Timestamp: d.now(),
		Type:      t,
		Tube:      d.tube,
		Reason:    reason,
	})
}

// DrainEvents returns and clears the queued events.
func (d *Device) DrainEvents() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return nil
	}
	events := d.pending
	d.pending = nil
	return events
}

// Snapshot returns the current device state.
func (d *Device) Snapshot() Snapshot {
	d.mu.Lock()
	tube := d.tube
	counts := d.counts
	d.mu.Unlock()

	system := SystemRunning
	if d.halted.Load() {
		system = SystemHalted
	}
	lowBattery := d.battery != nil && d.battery.Low()

	return Snapshot{
		Tube:       tube,
		System:     system,
		Debounce:   d.debouncer.State(),
		Frozen:     d.timing.Frozen(),
		LowBattery: lowBattery,
		Threshold:  d.classifier.Threshold().State(),
		Counts:     counts,
		Ticks:      d.timing.Ticks(),
	}
}
