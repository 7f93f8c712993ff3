package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/touch-tube/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ms": func(v int64) string {
		if v == 0 {
			return "disabled"
		}
		return fmt.Sprintf("%dms", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Touch Tube</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.halted { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Touch Tube</h1>

<h2>State</h2>
<table>
<tr><th>Tube</th><td id="tube-state" class="{{if eq .Tube "ON"}}on{{else if eq .Tube "OFF"}}off{{else}}unknown{{end}}">{{.Tube}}</td></tr>
<tr><th>System</th><td id="system-state" class="{{if eq .System "HALTED"}}halted{{end}}">{{.System}}</td></tr>
<tr><th>Touch</th><td>{{.Device.Debounce}}{{if .Device.Frozen}} (frozen){{end}}</td></tr>
<tr><th>Battery</th><td class="{{if .Device.LowBattery}}halted{{end}}">{{if .Device.LowBattery}}LOW{{else}}ok{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Threshold</h2>
<table>
<tr><th>Strong</th><td>{{.Device.Threshold.Strong}}</td></tr>
<tr><th>Tolerance</th><td>{{.Device.Threshold.Tolerance}}</td></tr>
<tr><th>Clamp</th><td>{{.Device.Threshold.ClampMin}}..{{.Device.Threshold.ClampMax}}</td></tr>
<tr><th>Preset</th><td>{{.Config.Preset}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .MQTTPending}}<tr><th>Buffered</th><td id="mqtt-pending">{{.MQTTPending}} messages</td></tr>{{end}}
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}: {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Presses</th><td>{{.Device.Counts.Presses}}</td></tr>
<tr><th>Bounces</th><td>{{.Device.Counts.Bounces}}</td></tr>
<tr><th>Press timeouts</th><td>{{.Device.Counts.PressTimeouts}}</td></tr>
<tr><th>Tube ON</th><td>{{.Device.Counts.TubeOn}}</td></tr>
<tr><th>Tube OFF</th><td>{{.Device.Counts.TubeOff}}</td></tr>
<tr><th>Auto-off</th><td>{{.Device.Counts.AutoOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Ticks</th><td>{{.Device.Ticks}}</td></tr>
<tr><th>Tick</th><td>{{ms .Config.TickMs}}</td></tr>
<tr><th>Press window</th><td>{{.Config.MinPressMs}}..{{.Config.MaxPressMs}}ms</td></tr>
<tr><th>Freeze</th><td>{{ms .Config.FreezeMs}}</td></tr>
<tr><th>Auto-off</th><td>{{ms .Config.AutoOffMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Derived values are flattened so the template stays logic-free.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Tube   string
		System string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Tube:     orUnknown(string(snap.Device.Tube)),
		System:   orUnknown(string(snap.Device.System)),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Warnf("web: render index: %v", err)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}
