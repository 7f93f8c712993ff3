package logic

import "testing"

// newTestDebouncer returns a debouncer with the reference 32ms bounds:
// 70ms -> 3 ticks, 1000ms -> 31 ticks.
func newTestDebouncer(t *testing.T) (*Debouncer, *SharedTimingState) {
	t.Helper()
	s := &SharedTimingState{}
	return NewDebouncer(3, 31, s), s
}

func tickN(s *SharedTimingState, n int) {
	for i := 0; i < n; i++ {
		s.advance(15)
	}
}

func TestDebouncerValidPress(t *testing.T) {
	d, s := newTestDebouncer(t)

	if got := d.Step(EdgeRising); got != OutcomeArmed {
		t.Fatalf("rising edge: expected ARMED, got %s", got)
	}
	if d.State() != WaitingForRelease {
		t.Fatalf("expected WAITING_FOR_RELEASE, got %s", d.State())
	}

	tickN(s, 4) // 128ms
	if s.PressDuration() != 4 {
		t.Errorf("expected press duration 4, got %d", s.PressDuration())
	}

	if got := d.Step(EdgeFalling); got != OutcomePress {
		t.Errorf("falling edge at 4 ticks: expected PRESS, got %s", got)
	}
	if d.State() != WaitingForPress {
		t.Errorf("expected WAITING_FOR_PRESS, got %s", d.State())
	}
	if s.PressDuration() != 0 {
		t.Errorf("press duration should reset, got %d", s.PressDuration())
	}
}

func TestDebouncerBounceRejected(t *testing.T) {
	d, s := newTestDebouncer(t)

	d.Step(EdgeRising)
	tickN(s, 1) // 32ms
	if got := d.Step(EdgeFalling); got != OutcomeBounce {
		t.Errorf("falling edge at 1 tick: expected BOUNCE, got %s", got)
	}
	if d.State() != WaitingForPress {
		t.Errorf("bounce should return to WAITING_FOR_PRESS, got %s", d.State())
	}
}

func TestDebouncerMinimumIsInclusive(t *testing.T) {
	d, s := newTestDebouncer(t)

	d.Step(EdgeRising)
	tickN(s, 2)
	if got := d.Step(EdgeFalling); got != OutcomeBounce {
		t.Errorf("2 ticks: expected BOUNCE, got %s", got)
	}

	d.Step(EdgeRising)
	tickN(s, 3)
	if got := d.Step(EdgeFalling); got != OutcomePress {
		t.Errorf("3 ticks: expected PRESS, got %s", got)
	}
}

func TestDebouncerTimeout(t *testing.T) {
	d, s := newTestDebouncer(t)

	d.Step(EdgeRising)
	tickN(s, 30)
	if got := d.Step(EdgeNone); got != OutcomeNone {
		t.Errorf("30 ticks: expected NONE, got %s", got)
	}
	if d.State() != WaitingForRelease {
		t.Fatalf("should still be waiting for release at 30 ticks")
	}

	tickN(s, 2) // 32 ticks
	if got := d.Step(EdgeNone); got != OutcomeTimeout {
		t.Errorf("32 ticks: expected TIMEOUT, got %s", got)
	}
	if d.State() != WaitingForPress {
		t.Errorf("timeout should return to WAITING_FOR_PRESS, got %s", d.State())
	}
	if s.PressDuration() != 0 {
		t.Errorf("press duration should reset on timeout, got %d", s.PressDuration())
	}
}

func TestDebouncerLateFallingIsTimeout(t *testing.T) {
	d, s := newTestDebouncer(t)

	d.Step(EdgeRising)
	tickN(s, 31)
	if got := d.Step(EdgeFalling); got != OutcomeTimeout {
		t.Errorf("falling edge at the maximum: expected TIMEOUT, got %s", got)
	}
}

func TestDebouncerRisingWhileWaitingRestartsTimer(t *testing.T) {
	d, s := newTestDebouncer(t)

	d.Step(EdgeRising)
	tickN(s, 20)
	if got := d.Step(EdgeRising); got != OutcomeUnstable {
		t.Errorf("second rising edge: expected UNSTABLE, got %s", got)
	}
	if d.State() != WaitingForRelease {
		t.Errorf("should remain in WAITING_FOR_RELEASE, got %s", d.State())
	}
	if s.PressDuration() != 0 {
		t.Errorf("press duration should restart, got %d", s.PressDuration())
	}

	// 20 + 20 ticks would have timed out without the restart
	tickN(s, 20)
	if got := d.Step(EdgeFalling); got != OutcomePress {
		t.Errorf("expected PRESS after restart, got %s", got)
	}
}

func TestDebouncerIgnoresFallingWhileIdle(t *testing.T) {
	d, s := newTestDebouncer(t)

	if got := d.Step(EdgeFalling); got != OutcomeNone {
		t.Errorf("falling edge while idle: expected NONE, got %s", got)
	}
	tickN(s, 10)
	if s.PressDuration() != 0 {
		t.Errorf("press duration must not count while idle, got %d", s.PressDuration())
	}
}

func TestDebouncerFreezeTaintsPendingPress(t *testing.T) {
	d, s := newTestDebouncer(t)

	d.Step(EdgeRising)
	s.armFreeze()
	tickN(s, 20)
	if got := d.Step(EdgeFalling); got != OutcomeDiscarded {
		t.Fatalf("release of an overlapped press: expected DISCARDED, got %s", got)
	}
	if d.State() != WaitingForPress {
		t.Errorf("expected WAITING_FOR_PRESS, got %s", d.State())
	}

	// the taint does not outlive the press it marked
	d.Step(EdgeRising)
	tickN(s, 4)
	if got := d.Step(EdgeFalling); got != OutcomePress {
		t.Errorf("next press: expected PRESS, got %s", got)
	}
}

func TestDebouncerFreezeWhileIdleTaintsNothing(t *testing.T) {
	d, s := newTestDebouncer(t)

	s.armFreeze()
	d.Step(EdgeRising)
	tickN(s, 4)
	if got := d.Step(EdgeFalling); got != OutcomePress {
		t.Errorf("press armed after the freeze: expected PRESS, got %s", got)
	}
}

func TestDebouncerShortOverlappedPressIsBounce(t *testing.T) {
	d, s := newTestDebouncer(t)

	d.Step(EdgeRising)
	s.armFreeze()
	tickN(s, 1)
	if got := d.Step(EdgeFalling); got != OutcomeBounce {
		t.Errorf("expected BOUNCE, got %s", got)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomeNone, "NONE"},
		{OutcomeArmed, "ARMED"},
		{OutcomeUnstable, "UNSTABLE"},
		{OutcomeTimeout, "TIMEOUT"},
		{OutcomeBounce, "BOUNCE"},
		{OutcomePress, "PRESS"},
		{OutcomeDiscarded, "DISCARDED"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %s, want %s", tt.o, got, tt.want)
		}
	}
}
