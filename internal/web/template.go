package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/dht11-sensor/internal/status"
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
	"ago": func(then, now time.Time) string {
		return humanize.RelTime(then, now, "ago", "from now")
	},
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>DHT11 Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.value { font-weight: bold; }
.ok { color: green; }
.fault { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DHT11 Sensor</h1>

<h2>Reading</h2>
<table>
{{if .Reading}}<tr><th>Temperature</th><td id="temperature" class="value">{{.Reading.Temperature}}&deg;C</td></tr>
<tr><th>Humidity</th><td id="humidity" class="value">{{.Reading.Humidity}}%</td></tr>
<tr><th>Taken</th><td>{{ago .Reading.Time .Now}}</td></tr>
{{else}}<tr><th>Temperature</th><td class="unknown">UNKNOWN</td></tr>
<tr><th>Humidity</th><td class="unknown">UNKNOWN</td></tr>
{{end}}<tr><th>Sensor</th><td id="sensor-state" class="{{if .Faulted}}fault{{else if .Reading}}ok{{else}}unknown{{end}}">{{if .Faulted}}FAULT{{else if .Reading}}OK{{else}}WAITING{{end}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td>{{.LastError}} ({{ago .LastErrorTime .Now}})</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Read Counts</h2>
<table>
<tr><th>Reads</th><td id="reads">{{comma .Counts.Reads}}</td></tr>
<tr><th>OK</th><td>{{comma .Counts.OK}}</td></tr>
{{range $kind, $n := .Counts.Failures}}<tr><th>{{$kind}}</th><td>{{comma $n}}</td></tr>
{{end}}<tr><th>Faults</th><td>{{comma .Counts.Faults}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Pin</th><td>{{.Config.Pin}} ({{.Config.Backend}})</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Fault after</th><td>{{.Config.FaultAfter}} failures</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
