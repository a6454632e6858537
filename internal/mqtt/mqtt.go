// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// Topic is the MQTT topic for sensor events.
const Topic = "environment/dht11/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "environment/dht11/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a sensor event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Sensor SensorPayload `json:"dht11"`
}

// SensorPayload contains the sensor event details.
type SensorPayload struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	Temperature *int   `json:"temperature_c,omitempty"`
	Humidity    *int   `json:"humidity_pct,omitempty"`
	Error       string `json:"error,omitempty"`
	Failures    int    `json:"failures,omitempty"`
}

// FormatPayload creates the JSON payload for a sensor event.
// Fault events carry no measurement; the other types carry the reading.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := SensorPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Error:     event.Error,
		Failures:  event.Failures,
	}
	if event.Type != logic.EventFault {
		t, h := int(event.Temperature), int(event.Humidity)
		p.Temperature = &t
		p.Humidity = &h
	}
	return json.Marshal(Payload{Sensor: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
