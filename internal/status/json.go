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
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Reading       *ReadingJSON `json:"reading"`
	LastError     *ErrorJSON   `json:"last_error,omitempty"`
	Faulted       bool         `json:"faulted"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"read_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the JSON representation of the last good reading.
type ReadingJSON struct {
	Temperature int    `json:"temperature_c"`
	Humidity    int    `json:"humidity_pct"`
	Timestamp   string `json:"timestamp"`
	AgeSeconds  int64  `json:"age_seconds"`
}

// ErrorJSON is the JSON representation of the last failure.
type ErrorJSON struct {
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of read counts.
type CountsJSON struct {
	Reads    int            `json:"reads"`
	OK       int            `json:"ok"`
	Failures map[string]int `json:"failures"`
	Faults   int            `json:"faults"`
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
	Backend     string `json:"backend"`
	Pin         string `json:"pin"`
	IntervalMs  int64  `json:"interval_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	FaultAfter  int    `json:"fault_after"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	failures := snap.Counts.Failures
	if failures == nil {
		failures = map[string]int{}
	}

	inner := StatusInner{
		Faulted:       snap.Faulted,
		Ready:         snap.Reading != nil,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Reads:    snap.Counts.Reads,
			OK:       snap.Counts.OK,
			Failures: failures,
			Faults:   snap.Counts.Faults,
		},
		Config: ConfigJSON{
			Backend:     snap.Config.Backend,
			Pin:         snap.Config.Pin,
			IntervalMs:  snap.Config.IntervalMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			FaultAfter:  snap.Config.FaultAfter,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if snap.Reading != nil {
		inner.Reading = &ReadingJSON{
			Temperature: int(snap.Reading.Temperature),
			Humidity:    int(snap.Reading.Humidity),
			Timestamp:   snap.Reading.Time.UTC().Format(time.RFC3339),
			AgeSeconds:  int64(snap.Age().Truncate(time.Second).Seconds()),
		}
	}
	if snap.LastError != "" {
		inner.LastError = &ErrorJSON{
			Kind:      snap.LastError,
			Timestamp: snap.LastErrorTime.UTC().Format(time.RFC3339),
		}
	}
	return inner
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
