package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/touch-tube/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "touch-tube.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	dc, err := c.Device()
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if dc.MinPressTicks != 3 || dc.MaxPressTicks != 31 {
		t.Errorf("press window: got [%d, %d], want [3, 31]", dc.MinPressTicks, dc.MaxPressTicks)
	}
	if dc.Classifier != logic.PresetAdaptive {
		t.Errorf("expected adaptive preset, got %+v", dc.Classifier)
	}
	if !dc.CloseOnStartup {
		t.Error("startup close should default on")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
watchdog = "/dev/watchdog"

[timing]
tick = "16ms"
auto_off = "1m"
close_on_startup = false

[classifier]
preset = "tracking"
clamp_max = 300

[gpio]
open = 5
close = 6
pulse_width = "20ms"

[mqtt]
broker = "tcp://broker.local:1883"
heartbeat = "0s"

[source]
replay = "touches.csv"
loop = true
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Timing.Tick != 16*time.Millisecond {
		t.Errorf("tick: got %v", c.Timing.Tick)
	}
	if c.Timing.MinPress != 70*time.Millisecond {
		t.Errorf("absent key should keep default, got min_press %v", c.Timing.MinPress)
	}
	if c.GPIO.Open != 5 || c.GPIO.Close != 6 || c.GPIO.PulseWidth != 20*time.Millisecond {
		t.Errorf("unexpected gpio: %+v", c.GPIO)
	}
	if c.MQTT.Broker != "tcp://broker.local:1883" || c.MQTT.Heartbeat != 0 {
		t.Errorf("unexpected mqtt: %+v", c.MQTT)
	}
	if c.Source.Replay != "touches.csv" || !c.Source.Loop {
		t.Errorf("unexpected source: %+v", c.Source)
	}
	if c.Watchdog != "/dev/watchdog" {
		t.Errorf("unexpected watchdog: %q", c.Watchdog)
	}

	dc, err := c.Device()
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if dc.MinPressTicks != 5 || dc.MaxPressTicks != 62 {
		t.Errorf("press window at 16ms: got [%d, %d], want [5, 62]", dc.MinPressTicks, dc.MaxPressTicks)
	}
	if dc.AutoOffTicks != 3750 {
		t.Errorf("auto-off ticks: got %d, want 3750", dc.AutoOffTicks)
	}
	if dc.CloseOnStartup {
		t.Error("close_on_startup=false not applied")
	}
	if dc.Classifier.Mode != logic.ThresholdTracking || dc.Classifier.ClampMax != 300 {
		t.Errorf("unexpected classifier: %+v", dc.Classifier)
	}
	if dc.Classifier.ClampMin != logic.PresetTracking.ClampMin {
		t.Errorf("override should keep the rest of the preset, got clamp_min %d", dc.Classifier.ClampMin)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[timing]
tik = "32ms"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "timing.tik") {
		t.Errorf("error should name the key, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":         `[timing`,
		"bad duration":   "[timing]\ntick = \"fast\"\n",
		"unknown preset": "[classifier]\npreset = \"magic\"\n",
		"bad window":     "[classifier]\nwindow = 3\n",
		"empty window":   "[timing]\nmin_press = \"2s\"\n",
		"shared line":    "[gpio]\nopen = 27\n",
		"zero pulse":     "[gpio]\npulse_width = \"0s\"\n",
		"neg heartbeat":  "[mqtt]\nheartbeat = \"-1s\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClassifierOverrides(t *testing.T) {
	c := Default()
	c.Classifier = Classifier{
		Preset:    "fixed",
		Window:    4,
		Smoothing: "none",
		Strong:    80,
		Weak:      30,
		ClampMin:  80,
		ClampMax:  80,
	}

	cc, err := c.ClassifierConfig()
	if err != nil {
		t.Fatalf("ClassifierConfig: %v", err)
	}
	want := logic.ClassifierConfig{
		Mode:      logic.ThresholdFixed,
		Window:    4,
		Smoothing: logic.SmoothingNone,
		Strong:    80,
		Weak:      30,
		ClampMin:  80,
		ClampMax:  80,
	}
	if cc != want {
		t.Errorf("got %+v, want %+v", cc, want)
	}
}
