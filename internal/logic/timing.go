package logic

import "sync/atomic"

// SharedTimingState holds everything the tick handler and the main cycle
// both touch. The tick handler is the only writer that increments the
// counters; the main cycle reads and resets them. Every field is a single
// atomic word so neither side needs the other's cooperation to read it.
type SharedTimingState struct {
	pressDuration       atomic.Uint32
	freezeElapsed       atomic.Uint32
	actuatorOnDuration  atomic.Uint32
	batteryCheckElapsed atomic.Uint32
	ticks               atomic.Uint64

	awaitingRelease atomic.Bool
	pressTainted    atomic.Bool
	freezeActive    atomic.Bool
	tubeOn          atomic.Bool
}

// PressDuration returns the ticks spent in WaitingForRelease.
func (s *SharedTimingState) PressDuration() uint32 { return s.pressDuration.Load() }

// FreezeElapsed returns the ticks since the freeze guard was armed.
func (s *SharedTimingState) FreezeElapsed() uint32 { return s.freezeElapsed.Load() }

// ActuatorOnDuration returns the ticks the tube has been on.
func (s *SharedTimingState) ActuatorOnDuration() uint32 { return s.actuatorOnDuration.Load() }

// Ticks returns the number of ticks seen since startup.
func (s *SharedTimingState) Ticks() uint64 { return s.ticks.Load() }

// Frozen reports whether the freeze guard is active.
func (s *SharedTimingState) Frozen() bool { return s.freezeActive.Load() }

// advance runs the counter part of one tick.
func (s *SharedTimingState) advance(freezeTicks uint32) {
	s.ticks.Add(1)
	if s.awaitingRelease.Load() {
		s.pressDuration.Add(1)
	}
	if s.freezeActive.Load() {
		if s.freezeElapsed.Add(1) > freezeTicks {
			s.freezeActive.Store(false)
			s.freezeElapsed.Store(0)
		}
	}
	s.batteryCheckElapsed.Add(1)
}

// armFreeze holds the press state machine until the settle period has
// passed and taints a press that is waiting for its release.
func (s *SharedTimingState) armFreeze() {
	if s.awaitingRelease.Load() {
		s.pressTainted.Store(true)
	}
	s.freezeElapsed.Store(0)
	s.freezeActive.Store(true)
}

// autoOffDue counts one tick of on-time and reports whether the bound
// has been exceeded. The counter is reset when it reports true.
func (s *SharedTimingState) autoOffDue(bound uint32) bool {
	if !s.tubeOn.Load() {
		return false
	}
	if s.actuatorOnDuration.Add(1) > bound {
		s.actuatorOnDuration.Store(0)
		return true
	}
	return false
}

// batteryDue reports whether a battery sample is due and restarts the
// interval when it is.
func (s *SharedTimingState) batteryDue(interval uint32) bool {
	if s.batteryCheckElapsed.Load() < interval {
		return false
	}
	s.batteryCheckElapsed.Store(0)
	return true
}

func (s *SharedTimingState) resetPress() {
	s.pressDuration.Store(0)
}
