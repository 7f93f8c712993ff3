package logic

import (
	"testing"
	"time"
)

func TestNewConfigReferenceTicks(t *testing.T) {
	cfg, err := NewConfig(DefaultTiming(), PresetAdaptive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"min press 70ms", cfg.MinPressTicks, 3},
		{"max press 1000ms", cfg.MaxPressTicks, 31},
		{"freeze 500ms", cfg.FreezeTicks, 15},
		{"auto-off 3min", cfg.AutoOffTicks, 5625},
		{"battery 1s", cfg.BatteryTicks, 31},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %d ticks, want %d", tt.name, tt.got, tt.want)
		}
	}
	if !cfg.CloseOnStartup {
		t.Error("startup close should default on")
	}
}

func TestNewConfigOtherTickPeriods(t *testing.T) {
	tests := []struct {
		period  time.Duration
		wantMin uint32
		wantMax uint32
	}{
		{time.Millisecond, 70, 1000},
		{16 * time.Millisecond, 5, 62},
		{32 * time.Millisecond, 3, 31},
	}
	for _, tt := range tests {
		tm := DefaultTiming()
		tm.TickPeriod = tt.period
		cfg, err := NewConfig(tm, PresetFixed)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", tt.period, err)
		}
		if cfg.MinPressTicks != tt.wantMin || cfg.MaxPressTicks != tt.wantMax {
			t.Errorf("%v: got [%d, %d], want [%d, %d]", tt.period, cfg.MinPressTicks, cfg.MaxPressTicks, tt.wantMin, tt.wantMax)
		}
	}
}

func TestNewConfigRejectsBadTiming(t *testing.T) {
	tests := map[string]func(*Timing){
		"zero period":       func(tm *Timing) { tm.TickPeriod = 0 },
		"min above max":     func(tm *Timing) { tm.MinPress = 2 * time.Second },
		"zero auto-off":     func(tm *Timing) { tm.AutoOff = 0 },
		"negative freeze":   func(tm *Timing) { tm.Freeze = -time.Millisecond },
		"collapsed window":  func(tm *Timing) { tm.TickPeriod = 900 * time.Millisecond },
		"zero battery tick": func(tm *Timing) { tm.BatteryInterval = 0 },
	}
	for name, mutate := range tests {
		tm := DefaultTiming()
		mutate(&tm)
		if _, err := NewConfig(tm, PresetAdaptive); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestClassifierConfigValidate(t *testing.T) {
	for _, name := range []string{"adaptive", "fixed", "windowed", "tracking"} {
		cc, err := Preset(name)
		if err != nil {
			t.Fatalf("Preset(%q): %v", name, err)
		}
		if err := cc.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	if _, err := Preset("bogus"); err == nil {
		t.Error("expected error for unknown preset")
	}

	bad := []func(*ClassifierConfig){
		func(c *ClassifierConfig) { c.Window = 2 },
		func(c *ClassifierConfig) { c.Mode = "magic" },
		func(c *ClassifierConfig) { c.Smoothing = "heavy" },
		func(c *ClassifierConfig) { c.ClampMin = 200 },
		func(c *ClassifierConfig) { c.Strong = 10 },
		func(c *ClassifierConfig) { c.QuietStreak = 0 },
	}
	for i, mutate := range bad {
		cc := PresetAdaptive
		mutate(&cc)
		if err := cc.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
