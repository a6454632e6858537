// Package status provides a thread-safe status tracker for the dht11-sensor daemon.
// It is read by the HTTP handlers and by the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Backend     string
	Pin         string
	IntervalMs  int64
	HeartbeatMs int64
	FaultAfter  int
	Broker      string
	HTTPAddr    string
}

// Reading is the last good measurement.
type Reading struct {
	Temperature uint8
	Humidity    uint8
	Time        time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Reading       *Reading
	LastError     string
	LastErrorTime time.Time
	Faulted       bool
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Age returns how old the last reading is, or zero if there is none.
func (s Snapshot) Age() time.Duration {
	if s.Reading == nil {
		return 0
	}
	return s.Now.Sub(s.Reading.Time)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the outcome of a read along with the monitor's state.
// Called from runLoop after every read.
func (t *Tracker) Update(in logic.Input, faulted bool, counts logic.Counts) {
	t.mu.Lock()
	if in.OK() {
		t.snap.Reading = &Reading{
			Temperature: in.Temperature,
			Humidity:    in.Humidity,
			Time:        in.Time,
		}
	} else {
		t.snap.LastError = in.Err
		t.snap.LastErrorTime = in.Time
	}
	t.snap.Faulted = faulted
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Reading != nil {
		r := *s.Reading
		s.Reading = &r
	}
	if s.Network != nil {
		n := *s.Network
		s.Network = &n
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
