// Package logic contains the pure touch and tube control logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is measured in ticks of the periodic timer; wall-clock time is only
// carried through for event timestamps.
package logic

import "time"

// Edge is the classification of one acquisition cycle.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "RISING"
	case EdgeFalling:
		return "FALLING"
	default:
		return "NONE"
	}
}

// DebounceState is the finger-press state machine state.
type DebounceState uint8

const (
	WaitingForPress DebounceState = iota
	WaitingForRelease
)

func (s DebounceState) String() string {
	if s == WaitingForRelease {
		return "WAITING_FOR_RELEASE"
	}
	return "WAITING_FOR_PRESS"
}

// TubeState represents the logical state of the tube.
type TubeState string

const (
	TubeOff TubeState = "OFF"
	TubeOn  TubeState = "ON"
)

// SystemState is RUNNING until a low battery blocks an ON actuation.
// HALTED is terminal for the power cycle.
type SystemState string

const (
	SystemRunning SystemState = "RUNNING"
	SystemHalted  SystemState = "HALTED"
)

// Channel selects one of the two mutually exclusive actuator lines.
type Channel uint8

const (
	ChannelOpen Channel = iota
	ChannelClose
)

func (c Channel) String() string {
	if c == ChannelOpen {
		return "OPEN"
	}
	return "CLOSE"
}

// Actuator issues fixed-width pulses on the tube's output lines.
// There is no feedback from the tube.
type Actuator interface {
	Pulse(ch Channel) error
}

// Comparator is the battery voltage-reference comparator.
type Comparator interface {
	EnableReference() error
	// Tripped reports whether the supply is below the reference.
	Tripped() (bool, error)
	DisableReference() error
}

// EventType identifies a device event.
type EventType string

const (
	EventPress        EventType = "PRESS"
	EventBounce       EventType = "BOUNCE"
	EventPressTimeout EventType = "PRESS_TIMEOUT"
	EventTubeOn       EventType = "TUBE_ON"
	EventTubeOff      EventType = "TUBE_OFF"
	EventBatteryLow   EventType = "BATTERY_LOW"
	EventHalted       EventType = "HALTED"
)

// Reasons attached to actuation events.
const (
	ReasonTouch   = "TOUCH"
	ReasonAutoOff = "AUTO_OFF"
	ReasonStartup = "STARTUP"
)

// Event represents a device event to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Tube      TubeState
	Reason    string
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Presses       int
	Bounces       int
	PressTimeouts int
	TubeOn        int
	TubeOff       int
	AutoOff       int
}

// ThresholdState is a point-in-time view of the classifier thresholds.
type ThresholdState struct {
	Strong      int
	Tolerance   int
	QuietStreak int
	ClampMin    int
	ClampMax    int
}

// Snapshot is a point-in-time view of the device, safe to use after return.
type Snapshot struct {
	Tube       TubeState
	System     SystemState
	Debounce   DebounceState
	Frozen     bool
	LowBattery bool
	Threshold  ThresholdState
	Counts     EventCounts
	Ticks      uint64
}
