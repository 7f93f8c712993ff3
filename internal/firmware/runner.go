package firmware

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/touch-tube/internal/acquire"
	"github.com/sweeney/touch-tube/internal/logic"
)

// EventSink receives device events from the main cycle.
type EventSink interface {
	Publish(event logic.Event) error
}

// StateSink receives a device snapshot after every main-cycle iteration.
type StateSink interface {
	UpdateDevice(snap logic.Snapshot)
}

// Runner owns the device and its collaborators.
type Runner struct {
	device   *logic.Device
	source   acquire.Source
	watchdog Watchdog
	sleeper  Sleeper
	sink     EventSink
	state    StateSink
	profile  PowerProfile

	now           func() time.Time
	heartbeat     time.Duration
	lastHeartbeat time.Time
	onHeartbeat   func(now time.Time)
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink publishes device events to sink.
func WithSink(sink EventSink) Option {
	return func(r *Runner) { r.sink = sink }
}

// WithState reports device snapshots to state.
func WithState(state StateSink) Option {
	return func(r *Runner) { r.state = state }
}

// WithProfile selects the sleep depth used while running.
func WithProfile(p PowerProfile) Option {
	return func(r *Runner) { r.profile = p }
}

// WithHeartbeat calls fn every interval of main-cycle time. An interval
// <= 0 disables it.
func WithHeartbeat(interval time.Duration, fn func(now time.Time)) Option {
	return func(r *Runner) {
		r.heartbeat = interval
		r.onHeartbeat = fn
	}
}

// WithClock overrides the wall clock used for heartbeats.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner. The device should already be started.
func NewRunner(device *logic.Device, source acquire.Source, watchdog Watchdog, sleeper Sleeper, opts ...Option) *Runner {
	r := &Runner{
		device:   device,
		source:   source,
		watchdog: watchdog,
		sleeper:  sleeper,
		profile:  ProfileIdle,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lastHeartbeat = r.now()
	return r
}

// Device returns the device driven by the runner.
func (r *Runner) Device() *logic.Device {
	return r.device
}

// Tick is the periodic timer callback.
func (r *Runner) Tick() {
	r.device.Tick()
	if w, ok := r.sleeper.(interface{ Wake() }); ok {
		w.Wake()
	}
}

// Iterate runs one main-cycle iteration, ending in sleep when the
// acquisition is idle.
func (r *Runner) Iterate() {
	if err := r.watchdog.Kick(); err != nil {
		log.Warnf("watchdog: %v", err)
	}

	if r.device.Halted() {
		// Terminal: the watchdog is the only thing still serviced.
		r.flush()
		r.sleeper.SleepUntilNextEvent(ProfilePowerDown)
		return
	}

	r.source.StartOrContinue()
	if r.source.Complete() {
		r.source.ClearComplete()
		delta := r.source.Delta()
		outcome := r.device.ProcessSample(delta)
		if outcome != logic.OutcomeNone {
			log.Debugf("touch: delta=%d outcome=%s", delta, outcome)
		}
	}

	r.flush()
	r.checkHeartbeat()

	if r.source.Idle() {
		r.sleeper.SleepUntilNextEvent(r.profile)
	}
}

// Run iterates until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		r.Iterate()
	}
	r.flush()
	return nil
}

// RunTicker calls Tick every period until ctx is done. It is the host
// stand-in for the hardware timer interrupt.
func (r *Runner) RunTicker(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Tick()
		}
	}
}

func (r *Runner) flush() {
	events := r.device.DrainEvents()
	for _, event := range events {
		log.Printf("event: %s (tube=%s reason=%s)", event.Type, event.Tube, event.Reason)
		if r.sink == nil {
			continue
		}
		if err := r.sink.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
			// Don't stop the cycle on publish failure
		}
	}
	if r.state != nil {
		r.state.UpdateDevice(r.device.Snapshot())
	}
}

func (r *Runner) checkHeartbeat() {
	if r.heartbeat <= 0 || r.onHeartbeat == nil {
		return
	}
	now := r.now()
	if now.Sub(r.lastHeartbeat) < r.heartbeat {
		return
	}
	r.lastHeartbeat = now
	r.onHeartbeat(now)
}
