package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/touch-tube/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventTubeOn,
		Tube:      logic.TubeOn,
		Reason:    logic.ReasonTouch,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Tube.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Tube.Timestamp)
	}
	if parsed.Tube.Event != "TUBE_ON" {
		t.Errorf("unexpected event: %s", parsed.Tube.Event)
	}
	if parsed.Tube.State != "ON" {
		t.Errorf("unexpected state: %s", parsed.Tube.State)
	}
	if parsed.Tube.Reason != "TOUCH" {
		t.Errorf("unexpected reason: %s", parsed.Tube.Reason)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	tests := []struct {
		name  string
		event logic.Event
		want  string
	}{
		{
			name: "auto-off",
			event: logic.Event{
				Timestamp: time.Date(2026, 2, 2, 22, 21, 12, 0, time.UTC),
				Type:      logic.EventTubeOff,
				Tube:      logic.TubeOff,
				Reason:    logic.ReasonAutoOff,
			},
			want: `{"tube":{"timestamp":"2026-02-02T22:21:12Z","event":"TUBE_OFF","state":"OFF","reason":"AUTO_OFF"}}`,
		},
		{
			name: "bounce omits reason",
			event: logic.Event{
				Timestamp: time.Date(2026, 2, 2, 22, 0, 0, 0, time.UTC),
				Type:      logic.EventBounce,
				Tube:      logic.TubeOff,
			},
			want: `{"tube":{"timestamp":"2026-02-02T22:00:00Z","event":"BOUNCE","state":"OFF"}}`,
		},
		{
			name: "halted",
			event: logic.Event{
				Timestamp: time.Date(2026, 2, 2, 23, 0, 0, 0, time.UTC),
				Type:      logic.EventHalted,
				Tube:      logic.TubeOff,
			},
			want: `{"tube":{"timestamp":"2026-02-02T23:00:00Z","event":"HALTED","state":"OFF"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(payload) != tt.want {
				t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, tt.want)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 3, 1, 0, 0, 0, loc),
		Type:      logic.EventPress,
		Tube:      logic.TubeOff,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(payload), `"timestamp":"2026-02-02T23:00:00Z"`) {
		t.Errorf("timestamp not converted to UTC: %s", payload)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "home/touch-tube/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "home/touch-tube/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	tests := []struct {
		name  string
		event SystemEvent
		want  string
	}{
		{
			name: "shutdown with signal",
			event: SystemEvent{
				Timestamp: time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC),
				Event:     "SHUTDOWN",
				Reason:    "SIGTERM",
			},
			want: `{"system":{"timestamp":"2026-02-03T19:05:51Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			name: "will",
			event: SystemEvent{
				Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
				Event:     "SHUTDOWN",
				Reason:    "MQTT_DISCONNECT",
			},
			want: `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`,
		},
		{
			name: "reconnected omits reason",
			event: SystemEvent{
				Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
				Event:     "RECONNECTED",
			},
			want: `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatSystemPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(payload) != tt.want {
				t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, tt.want)
			}
		})
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"system":{"event":"STARTUP","config":{"tick_ms":32}}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload should pass through, got %s", payload)
	}
}

func TestClientIDUnique(t *testing.T) {
	a, b := ClientID(), ClientID()
	if !strings.HasPrefix(a, "touch-tube-") {
		t.Errorf("unexpected client ID: %s", a)
	}
	if len(a) != len("touch-tube-")+8 {
		t.Errorf("unexpected client ID length: %s", a)
	}
	if a == b {
		t.Errorf("client IDs should differ, both %s", a)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	events := []logic.Event{
		{Timestamp: time.Now(), Type: logic.EventPress, Tube: logic.TubeOff, Reason: logic.ReasonTouch},
		{Timestamp: time.Now(), Type: logic.EventTubeOn, Tube: logic.TubeOn, Reason: logic.ReasonTouch},
	}
	for _, e := range events {
		if err := f.Publish(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	types := f.EventTypes()
	if len(types) != 2 || types[0] != logic.EventPress || types[1] != logic.EventTubeOn {
		t.Errorf("unexpected event order: %v", types)
	}
	if len(f.Payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(f.Payloads))
	}
	var parsed Payload
	if err := json.Unmarshal(f.Payloads[1], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Tube.State != "ON" {
		t.Errorf("unexpected state in payload: %s", parsed.Tube.State)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(logic.Event{Type: logic.EventPress}); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes must not be recorded")
	}
}

func TestFakePublisherSystemEvents(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT"})

	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "HEARTBEAT" {
		t.Errorf("unexpected system events: %v", names)
	}
	if !f.SystemEvents[0].Retained || f.SystemEvents[1].Retained {
		t.Error("retained flag not preserved")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Type: logic.EventPress})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if len(f.Events) != 0 || len(f.Payloads) != 0 || len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("reset should clear recorded events")
	}
	if f.Closed || f.Connected {
		t.Error("reset should clear flags")
	}

	f.Publish(logic.Event{Type: logic.EventBounce})
	if len(f.Events) != 1 {
		t.Error("publisher should be reusable after reset")
	}
}
