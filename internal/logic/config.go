package logic

import (
	"fmt"
	"time"
)

// ThresholdMode selects how the strong-edge threshold evolves.
type ThresholdMode string

const (
	// ThresholdFixed keeps the configured strong and weak thresholds.
	ThresholdFixed ThresholdMode = "fixed"
	// ThresholdAdaptive nudges the threshold by observed noise.
	ThresholdAdaptive ThresholdMode = "adaptive"
	// ThresholdTracking derives both thresholds from a running average of
	// touch strength, refreshed after every completed press.
	ThresholdTracking ThresholdMode = "tracking"
)

// Smoothing selects the filter applied to the running sample.
type Smoothing string

const (
	// SmoothingNone keeps the newest sample as the running value.
	SmoothingNone Smoothing = "none"
	// SmoothingTiered blends 5:5 in the weak band and 9:1 in the quiet band.
	SmoothingTiered Smoothing = "tiered"
)

// ClassifierConfig selects the edge classifier variant.
type ClassifierConfig struct {
	Mode      ThresholdMode
	Window    int // 1 or 4
	Smoothing Smoothing

	Strong   int // initial strong-edge threshold
	Weak     int // weak band floor for fixed mode; derived in the other modes
	ClampMin int
	ClampMax int

	// QuietStreak is the number of quiet cycles before an adaptive
	// threshold relaxes by one.
	QuietStreak int
	// TouchSignal seeds the tracking average.
	TouchSignal int
}

// Validate reports configuration errors.
func (c ClassifierConfig) Validate() error {
	switch c.Mode {
	case ThresholdFixed, ThresholdAdaptive, ThresholdTracking:
	default:
		return fmt.Errorf("unknown threshold mode %q", c.Mode)
	}
	switch c.Smoothing {
	case SmoothingNone, SmoothingTiered:
	default:
		return fmt.Errorf("unknown smoothing %q", c.Smoothing)
	}
	if c.Window != 1 && c.Window != 4 {
		return fmt.Errorf("window must be 1 or 4, got %d", c.Window)
	}
	if c.ClampMin <= 0 || c.ClampMin > c.ClampMax {
		return fmt.Errorf("clamp bounds out of order: [%d, %d]", c.ClampMin, c.ClampMax)
	}
	if c.Strong < c.ClampMin || c.Strong > c.ClampMax {
		return fmt.Errorf("strong threshold %d outside clamp [%d, %d]", c.Strong, c.ClampMin, c.ClampMax)
	}
	if c.Mode == ThresholdFixed && (c.Weak <= 0 || c.Weak > c.Strong) {
		return fmt.Errorf("weak threshold %d must be in (0, %d]", c.Weak, c.Strong)
	}
	if c.Mode == ThresholdAdaptive && c.QuietStreak <= 0 {
		return fmt.Errorf("quiet streak must be positive, got %d", c.QuietStreak)
	}
	if c.Mode == ThresholdTracking && c.TouchSignal <= 0 {
		return fmt.Errorf("touch signal must be positive, got %d", c.TouchSignal)
	}
	return nil
}

// Classifier presets. PresetAdaptive is the reference behaviour.
var (
	PresetAdaptive = ClassifierConfig{
		Mode:        ThresholdAdaptive,
		Window:      1,
		Smoothing:   SmoothingNone,
		Strong:      70,
		ClampMin:    30,
		ClampMax:    150,
		QuietStreak: 100,
	}

	PresetFixed = ClassifierConfig{
		Mode:      ThresholdFixed,
		Window:    1,
		Smoothing: SmoothingTiered,
		Strong:    70,
		Weak:      40,
		ClampMin:  70,
		ClampMax:  70,
	}

	PresetWindowed = ClassifierConfig{
		Mode:      ThresholdFixed,
		Window:    4,
		Smoothing: SmoothingTiered,
		Strong:    70,
		Weak:      40,
		ClampMin:  70,
		ClampMax:  70,
	}

	PresetTracking = ClassifierConfig{
		Mode:        ThresholdTracking,
		Window:      4,
		Smoothing:   SmoothingTiered,
		Strong:      70,
		ClampMin:    20,
		ClampMax:    400,
		TouchSignal: 100,
	}
)

// Preset returns the named classifier preset.
func Preset(name string) (ClassifierConfig, error) {
	switch name {
	case "adaptive":
		return PresetAdaptive, nil
	case "fixed":
		return PresetFixed, nil
	case "windowed":
		return PresetWindowed, nil
	case "tracking":
		return PresetTracking, nil
	}
	return ClassifierConfig{}, fmt.Errorf("unknown preset %q", name)
}

// Config holds every bound of the device, already converted to ticks.
type Config struct {
	Classifier ClassifierConfig

	MinPressTicks  uint32
	MaxPressTicks  uint32
	FreezeTicks    uint32
	AutoOffTicks   uint32
	BatteryTicks   uint32
	BatterySettle  time.Duration
	CloseOnStartup bool
}

// Timing holds the wall-clock bounds a Config is derived from.
type Timing struct {
	TickPeriod      time.Duration
	MinPress        time.Duration
	MaxPress        time.Duration
	Freeze          time.Duration
	AutoOff         time.Duration
	BatteryInterval time.Duration
	BatterySettle   time.Duration
}

// DefaultTiming returns the reference bounds at a 32ms tick.
func DefaultTiming() Timing {
	return Timing{
		TickPeriod:      32 * time.Millisecond,
		MinPress:        70 * time.Millisecond,
		MaxPress:        1000 * time.Millisecond,
		Freeze:          500 * time.Millisecond,
		AutoOff:         3 * time.Minute,
		BatteryInterval: time.Second,
		BatterySettle:   time.Millisecond,
	}
}

// NewConfig converts wall-clock bounds to tick counts.
// A minimum rounds up so a press is never shorter than asked for;
// the other bounds round down.
func NewConfig(t Timing, cc ClassifierConfig) (Config, error) {
	if t.TickPeriod <= 0 {
		return Config{}, fmt.Errorf("tick period must be positive, got %v", t.TickPeriod)
	}
	if t.MinPress <= 0 || t.MaxPress <= t.MinPress {
		return Config{}, fmt.Errorf("press window [%v, %v] is empty", t.MinPress, t.MaxPress)
	}
	if t.Freeze < 0 || t.AutoOff <= 0 || t.BatteryInterval <= 0 || t.BatterySettle < 0 {
		return Config{}, fmt.Errorf("freeze, auto-off and battery bounds must be positive")
	}
	if err := cc.Validate(); err != nil {
		return Config{}, fmt.Errorf("classifier: %w", err)
	}

	cfg := Config{
		Classifier:     cc,
		MinPressTicks:  ticksCeil(t.MinPress, t.TickPeriod),
		MaxPressTicks:  ticksFloor(t.MaxPress, t.TickPeriod),
		FreezeTicks:    ticksFloor(t.Freeze, t.TickPeriod),
		AutoOffTicks:   ticksFloor(t.AutoOff, t.TickPeriod),
		BatteryTicks:   ticksFloor(t.BatteryInterval, t.TickPeriod),
		BatterySettle:  t.BatterySettle,
		CloseOnStartup: true,
	}
	if cfg.MaxPressTicks <= cfg.MinPressTicks {
		return Config{}, fmt.Errorf("press window collapses at tick period %v", t.TickPeriod)
	}
	if cfg.BatteryTicks == 0 {
		cfg.BatteryTicks = 1
	}
	return cfg, nil
}

func ticksFloor(d, period time.Duration) uint32 {
	return uint32(d / period)
}

func ticksCeil(d, period time.Duration) uint32 {
	return uint32((d + period - 1) / period)
}
