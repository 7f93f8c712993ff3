// Package config loads the daemon's tuning file.
//
// The file is TOML. Every key is optional; absent keys keep the defaults
// returned by Default. Durations are written as strings ("32ms", "3m").
//
//	[timing]
//	tick = "32ms"
//	auto_off = "3m"
//
//	[classifier]
//	preset = "tracking"
//	clamp_max = 300
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/touch-tube/internal/gpio"
	"github.com/sweeney/touch-tube/internal/logic"
)

// Config is the complete daemon configuration.
type Config struct {
	Timing     Timing     `toml:"timing"`
	Classifier Classifier `toml:"classifier"`
	GPIO       GPIO       `toml:"gpio"`
	MQTT       MQTT       `toml:"mqtt"`
	HTTP       HTTP       `toml:"http"`
	Source     Source     `toml:"source"`

	// Watchdog is the watchdog device path; empty uses a software counter.
	Watchdog string `toml:"watchdog"`
}

// Timing holds the wall-clock bounds of the device.
type Timing struct {
	Tick            time.Duration `toml:"tick"`
	MinPress        time.Duration `toml:"min_press"`
	MaxPress        time.Duration `toml:"max_press"`
	Freeze          time.Duration `toml:"freeze"`
	AutoOff         time.Duration `toml:"auto_off"`
	BatteryInterval time.Duration `toml:"battery_interval"`
	BatterySettle   time.Duration `toml:"battery_settle"`
	CloseOnStartup  bool          `toml:"close_on_startup"`
}

// Classifier selects a preset and optionally overrides its fields.
// Zero values keep the preset's setting.
type Classifier struct {
	Preset      string `toml:"preset"`
	Window      int    `toml:"window"`
	Smoothing   string `toml:"smoothing"`
	Strong      int    `toml:"strong"`
	Weak        int    `toml:"weak"`
	ClampMin    int    `toml:"clamp_min"`
	ClampMax    int    `toml:"clamp_max"`
	QuietStreak int    `toml:"quiet_streak"`
	TouchSignal int    `toml:"touch_signal"`
}

// GPIO holds the character device and line offsets.
type GPIO struct {
	Chip       string        `toml:"chip"`
	Open       int           `toml:"open"`
	Close      int           `toml:"close"`
	Reference  int           `toml:"reference"`
	Comparator int           `toml:"comparator"`
	PulseWidth time.Duration `toml:"pulse_width"`
	// TripHigh means a high comparator input reports low battery.
	TripHigh bool `toml:"trip_high"`
}

// MQTT holds the broker settings.
type MQTT struct {
	Broker    string        `toml:"broker"`
	Heartbeat time.Duration `toml:"heartbeat"`
}

// HTTP holds the status server settings.
type HTTP struct {
	Addr string `toml:"addr"`
}

// Source selects where touch measurements come from.
type Source struct {
	// Replay is a CSV recording of deltas; required on hosts without a
	// capacitive front end.
	Replay string `toml:"replay"`
	Loop   bool   `toml:"loop"`
}

// Default returns the reference configuration.
func Default() Config {
	t := logic.DefaultTiming()
	return Config{
		Timing: Timing{
			Tick:            t.TickPeriod,
			MinPress:        t.MinPress,
			MaxPress:        t.MaxPress,
			Freeze:          t.Freeze,
			AutoOff:         t.AutoOff,
			BatteryInterval: t.BatteryInterval,
			BatterySettle:   t.BatterySettle,
			CloseOnStartup:  true,
		},
		Classifier: Classifier{Preset: "adaptive"},
		GPIO: GPIO{
			Chip:       gpio.DefaultChip,
			Open:       gpio.DefaultPinOpen,
			Close:      gpio.DefaultPinClose,
			Reference:  gpio.DefaultPinReference,
			Comparator: gpio.DefaultPinComparator,
			PulseWidth: gpio.DefaultPulseWidth,
		},
		MQTT: MQTT{
			Broker:    "tcp://192.168.1.200:1883",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTP{Addr: ":80"},
	}
}

// Load reads path on top of the defaults. Unknown keys are an error so a
// typo does not silently fall back to a default.
func Load(path string) (Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return c, nil
}

// Validate reports configuration errors that the device layer would
// otherwise reject later with less context.
func (c Config) Validate() error {
	if _, err := c.Device(); err != nil {
		return err
	}
	if c.GPIO.PulseWidth <= 0 {
		return fmt.Errorf("gpio.pulse_width must be positive, got %v", c.GPIO.PulseWidth)
	}
	lines := map[int]string{}
	for name, line := range map[string]int{
		"open":       c.GPIO.Open,
		"close":      c.GPIO.Close,
		"reference":  c.GPIO.Reference,
		"comparator": c.GPIO.Comparator,
	} {
		if line < 0 {
			return fmt.Errorf("gpio.%s: negative line %d", name, line)
		}
		if other, ok := lines[line]; ok {
			return fmt.Errorf("gpio.%s and gpio.%s share line %d", name, other, line)
		}
		lines[line] = name
	}
	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("mqtt.heartbeat must not be negative, got %v", c.MQTT.Heartbeat)
	}
	return nil
}

// LogicTiming returns the timing bounds in the device layer's form.
func (c Config) LogicTiming() logic.Timing {
	return logic.Timing{
		TickPeriod:      c.Timing.Tick,
		MinPress:        c.Timing.MinPress,
		MaxPress:        c.Timing.MaxPress,
		Freeze:          c.Timing.Freeze,
		AutoOff:         c.Timing.AutoOff,
		BatteryInterval: c.Timing.BatteryInterval,
		BatterySettle:   c.Timing.BatterySettle,
	}
}

// ClassifierConfig resolves the preset and applies the overrides.
func (c Config) ClassifierConfig() (logic.ClassifierConfig, error) {
	cc, err := logic.Preset(c.Classifier.Preset)
	if err != nil {
		return logic.ClassifierConfig{}, err
	}
	o := c.Classifier
	if o.Window != 0 {
		cc.Window = o.Window
	}
	if o.Smoothing != "" {
		cc.Smoothing = logic.Smoothing(o.Smoothing)
	}
	if o.Strong != 0 {
		cc.Strong = o.Strong
	}
	if o.Weak != 0 {
		cc.Weak = o.Weak
	}
	if o.ClampMin != 0 {
		cc.ClampMin = o.ClampMin
	}
	if o.ClampMax != 0 {
		cc.ClampMax = o.ClampMax
	}
	if o.QuietStreak != 0 {
		cc.QuietStreak = o.QuietStreak
	}
	if o.TouchSignal != 0 {
		cc.TouchSignal = o.TouchSignal
	}
	if err := cc.Validate(); err != nil {
		return logic.ClassifierConfig{}, fmt.Errorf("classifier: %w", err)
	}
	return cc, nil
}

// Device returns the tick-based device configuration.
func (c Config) Device() (logic.Config, error) {
	cc, err := c.ClassifierConfig()
	if err != nil {
		return logic.Config{}, err
	}
	dc, err := logic.NewConfig(c.LogicTiming(), cc)
	if err != nil {
		return logic.Config{}, err
	}
	dc.CloseOnStartup = c.Timing.CloseOnStartup
	return dc, nil
}
