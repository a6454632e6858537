package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedTracker(cfg Config, now time.Time) *Tracker {
	tr := NewTracker(start, cfg)
	tr.now = func() time.Time { return now }
	return tr
}

func TestNewTracker(t *testing.T) {
	cfg := Config{Backend: "gpiocdev", Pin: "gpiochip0:4", IntervalMs: 2000, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	assert.True(t, snap.StartTime.Equal(start))
	assert.Equal(t, cfg, snap.Config)
	assert.Nil(t, snap.Reading)
	assert.False(t, snap.MQTTConnected)
	assert.False(t, snap.Faulted)
	assert.Zero(t, snap.Age())
}

func TestUpdateGoodRead(t *testing.T) {
	now := start.Add(time.Minute)
	tr := fixedTracker(Config{}, now)

	at := start.Add(50 * time.Second)
	tr.Update(logic.Input{Temperature: 24, Humidity: 50, Time: at}, false, logic.Counts{Reads: 1, OK: 1})

	snap := tr.Snapshot()
	require.NotNil(t, snap.Reading)
	assert.Equal(t, uint8(24), snap.Reading.Temperature)
	assert.Equal(t, uint8(50), snap.Reading.Humidity)
	assert.Equal(t, 10*time.Second, snap.Age())
	assert.Equal(t, time.Minute, snap.Uptime())
	assert.Equal(t, 1, snap.Counts.OK)
}

func TestUpdateFailureKeepsLastReading(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.Update(logic.Input{Temperature: 24, Humidity: 50, Time: start}, false, logic.Counts{})
	tr.Update(logic.Input{Err: "checksum_mismatch", Time: start.Add(2 * time.Second)}, true, logic.Counts{})

	snap := tr.Snapshot()
	require.NotNil(t, snap.Reading)
	assert.Equal(t, uint8(24), snap.Reading.Temperature)
	assert.Equal(t, "checksum_mismatch", snap.LastError)
	assert.True(t, snap.LastErrorTime.Equal(start.Add(2*time.Second)))
	assert.True(t, snap.Faulted)
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(logic.Input{Temperature: 24, Humidity: 50, Time: start}, false, logic.Counts{})
	tr.SetNetwork(&NetworkInfo{Status: "connected"})

	snap := tr.Snapshot()
	snap.Reading.Temperature = 99
	snap.Network.Status = "down"

	again := tr.Snapshot()
	assert.Equal(t, uint8(24), again.Reading.Temperature)
	assert.Equal(t, "connected", again.Network.Status)
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.SetMQTTConnected(true)
	assert.True(t, tr.Snapshot().MQTTConnected)

	tr.SetMQTTConnected(false)
	assert.False(t, tr.Snapshot().MQTTConnected)
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tr.Update(logic.Input{Temperature: uint8(i), Time: start}, i%2 == 0, logic.Counts{Reads: i})
			tr.SetMQTTConnected(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = FormatJSON(tr.Snapshot())
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	now := start.Add(90 * time.Second)
	tr := fixedTracker(Config{Backend: "rpio", Pin: "BCM4", IntervalMs: 2000, FaultAfter: 5, Broker: "tcp://b:1883", HTTPAddr: ":80"}, now)
	tr.Update(logic.Input{Temperature: 24, Humidity: 50, Time: start.Add(80 * time.Second)}, false,
		logic.Counts{Reads: 3, OK: 2, Failures: map[string]int{"checksum_mismatch": 1}})
	tr.SetMQTTConnected(true)

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(tr.Snapshot()), &sj))

	s := sj.Status
	assert.Empty(t, s.Event)
	require.NotNil(t, s.Reading)
	assert.Equal(t, 24, s.Reading.Temperature)
	assert.Equal(t, 50, s.Reading.Humidity)
	assert.Equal(t, int64(10), s.Reading.AgeSeconds)
	assert.Nil(t, s.LastError)
	assert.True(t, s.Ready)
	assert.Equal(t, int64(90), s.UptimeSeconds)
	assert.Equal(t, "2026-01-01T00:00:00Z", s.StartTime)
	assert.True(t, s.MQTT.Connected)
	assert.Equal(t, 3, s.Counts.Reads)
	assert.Equal(t, 1, s.Counts.Failures["checksum_mismatch"])
	assert.Equal(t, "rpio", s.Config.Backend)
	assert.Equal(t, "BCM4", s.Config.Pin)
	assert.Equal(t, 5, s.Config.FaultAfter)
	assert.Nil(t, s.Network)
}

func TestFormatJSONNoReading(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(logic.Input{Err: "handshake_timeout_low", Time: start}, false, logic.Counts{})

	data := FormatJSON(tr.Snapshot())

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "null", string(raw["status"]["reading"]))

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(data, &sj))
	assert.False(t, sj.Status.Ready)
	require.NotNil(t, sj.Status.LastError)
	assert.Equal(t, "handshake_timeout_low", sj.Status.LastError.Kind)
	assert.NotNil(t, sj.Status.Counts.Failures)
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(start, Config{Broker: "tcp://b:1883"})
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.50", Status: "connected", SSID: "home"})

	var sj StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &sj))

	assert.Equal(t, "SHUTDOWN", sj.Status.Event)
	assert.Equal(t, "SIGTERM", sj.Status.Reason)
	require.NotNil(t, sj.Status.Network)
	assert.Equal(t, "192.168.1.50", sj.Status.Network.IP)
	assert.Equal(t, "home", sj.Status.Network.SSID)
}
