package logic

// Outcome is what one debouncer step decided.
type Outcome uint8

const (
	OutcomeNone     Outcome = iota
	OutcomeArmed            // rising edge, now waiting for release
	OutcomeUnstable         // rising edge while waiting, timer restarted
	OutcomeTimeout          // no release within the maximum press duration
	OutcomeBounce           // release before the minimum press duration
	OutcomePress            // valid press and release
	OutcomeDiscarded        // release of a press that overlapped an actuation
)

func (o Outcome) String() string {
	switch o {
	case OutcomeArmed:
		return "ARMED"
	case OutcomeUnstable:
		return "UNSTABLE"
	case OutcomeTimeout:
		return "TIMEOUT"
	case OutcomeBounce:
		return "BOUNCE"
	case OutcomePress:
		return "PRESS"
	case OutcomeDiscarded:
		return "DISCARDED"
	default:
		return "NONE"
	}
}

// Debouncer is the finger-press state machine. Press duration is counted
// by the tick handler in the shared timing state while the debouncer is
// waiting for a release. A press pending when the freeze guard is armed is
// tainted and its release never counts as a press.
type Debouncer struct {
	state    DebounceState
	minTicks uint32
	maxTicks uint32
	timing   *SharedTimingState
}

// NewDebouncer creates a debouncer accepting presses of [minTicks, maxTicks).
func NewDebouncer(minTicks, maxTicks uint32, timing *SharedTimingState) *Debouncer {
	return &Debouncer{
		minTicks: minTicks,
		maxTicks: maxTicks,
		timing:   timing,
	}
}

// State returns the current state.
func (d *Debouncer) State() DebounceState {
	return d.state
}

// Step feeds one classified edge into the state machine.
func (d *Debouncer) Step(edge Edge) Outcome {
	switch d.state {
	case WaitingForPress:
		if edge == EdgeRising {
			d.timing.resetPress()
			d.transition(WaitingForRelease)
			return OutcomeArmed
		}

	case WaitingForRelease:
		if edge == EdgeRising {
			d.timing.resetPress()
			return OutcomeUnstable
		}

		held := d.timing.PressDuration()
		if held >= d.maxTicks {
			d.transition(WaitingForPress)
			return OutcomeTimeout
		}

		if edge == EdgeFalling {
			tainted := d.timing.pressTainted.Load()
			d.transition(WaitingForPress)
			switch {
			case held < d.minTicks:
				return OutcomeBounce
			case tainted:
				return OutcomeDiscarded
			}
			return OutcomePress
		}
	}
	return OutcomeNone
}

func (d *Debouncer) transition(to DebounceState) {
	d.state = to
	d.timing.pressTainted.Store(false)
	d.timing.awaitingRelease.Store(to == WaitingForRelease)
	d.timing.resetPress()
}
