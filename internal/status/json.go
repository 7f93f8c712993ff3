package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Tube          string        `json:"tube"`
	System        string        `json:"system"`
	Ready         bool          `json:"ready"`
	BootID        string        `json:"boot_id"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	Touch         TouchJSON     `json:"touch"`
	Battery       BatteryJSON   `json:"battery"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Threshold     ThresholdJSON `json:"threshold"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// TouchJSON reports the press state machine.
type TouchJSON struct {
	Debounce string `json:"debounce"`
	Frozen   bool   `json:"frozen"`
	Ticks    uint64 `json:"ticks"`
}

// BatteryJSON reports the latched battery state.
type BatteryJSON struct {
	Low bool `json:"low"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Pending   int    `json:"pending"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Presses       int `json:"presses"`
	Bounces       int `json:"bounces"`
	PressTimeouts int `json:"press_timeouts"`
	TubeOn        int `json:"tube_on"`
	TubeOff       int `json:"tube_off"`
	AutoOff       int `json:"auto_off"`
}

// ThresholdJSON is the JSON representation of the classifier thresholds.
type ThresholdJSON struct {
	Strong      int `json:"strong"`
	Tolerance   int `json:"tolerance"`
	QuietStreak int `json:"quiet_streak"`
	ClampMin    int `json:"clamp_min"`
	ClampMax    int `json:"clamp_max"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	MinPressMs  int64  `json:"min_press_ms"`
	MaxPressMs  int64  `json:"max_press_ms"`
	FreezeMs    int64  `json:"freeze_ms"`
	AutoOffMs   int64  `json:"auto_off_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Preset      string `json:"preset"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	dev := snap.Device
	tube := string(dev.Tube)
	if tube == "" {
		tube = "UNKNOWN"
	}
	system := string(dev.System)
	if system == "" {
		system = "UNKNOWN"
	}

	return StatusInner{
		Tube:          tube,
		System:        system,
		Ready:         snap.Ready,
		BootID:        snap.BootID,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Touch: TouchJSON{
			Debounce: dev.Debounce.String(),
			Frozen:   dev.Frozen,
			Ticks:    dev.Ticks,
		},
		Battery: BatteryJSON{Low: dev.LowBattery},
		MQTT:    MQTTStatus{Connected: snap.MQTTConnected, Pending: snap.MQTTPending, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Presses:       dev.Counts.Presses,
			Bounces:       dev.Counts.Bounces,
			PressTimeouts: dev.Counts.PressTimeouts,
			TubeOn:        dev.Counts.TubeOn,
			TubeOff:       dev.Counts.TubeOff,
			AutoOff:       dev.Counts.AutoOff,
		},
		Threshold: ThresholdJSON{
			Strong:      dev.Threshold.Strong,
			Tolerance:   dev.Threshold.Tolerance,
			QuietStreak: dev.Threshold.QuietStreak,
			ClampMin:    dev.Threshold.ClampMin,
			ClampMax:    dev.Threshold.ClampMax,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			MinPressMs:  snap.Config.MinPressMs,
			MaxPressMs:  snap.Config.MaxPressMs,
			FreezeMs:    snap.Config.FreezeMs,
			AutoOffMs:   snap.Config.AutoOffMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Preset:      snap.Config.Preset,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
