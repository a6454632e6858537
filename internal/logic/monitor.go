package logic

import "time"

// DefaultFaultAfter is how many consecutive failures declare the sensor faulty.
const DefaultFaultAfter = 5

// Monitor tracks read outcomes and decides what to publish.
type Monitor struct {
	faultAfter    int
	baselined     bool
	last          Input
	streak        int
	lastErr       string
	faulted       bool
	startTime     time.Time
	counts        Counts
	lastHeartbeat time.Time
}

// NewMonitor creates a Monitor that declares a fault after faultAfter
// consecutive failures (DefaultFaultAfter if faultAfter <= 0).
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(faultAfter int, startTime time.Time) *Monitor {
	if faultAfter <= 0 {
		faultAfter = DefaultFaultAfter
	}
	return &Monitor{
		faultAfter:    faultAfter,
		startTime:     startTime,
		lastHeartbeat: startTime,
		counts:        Counts{Failures: make(map[string]int)},
	}
}

// Process takes the outcome of a read and returns any events that should be
// emitted. A READING is emitted for the first good read and afterwards only
// when a value changes.
func (m *Monitor) Process(in Input) []Event {
	m.counts.Reads++

	if !in.OK() {
		m.counts.Failures[in.Err]++
		m.streak++
		m.lastErr = in.Err
		if !m.faulted && m.streak >= m.faultAfter {
			m.faulted = true
			m.counts.Faults++
			return []Event{{
				Timestamp: in.Time,
				Type:      EventFault,
				Error:     in.Err,
				Failures:  m.streak,
			}}
		}
		return nil
	}

	m.counts.OK++
	var events []Event

	if m.faulted {
		events = append(events, Event{
			Timestamp:   in.Time,
			Type:        EventRecovered,
			Temperature: in.Temperature,
			Humidity:    in.Humidity,
			Error:       m.lastErr,
			Failures:    m.streak,
		})
		m.faulted = false
	}
	m.streak = 0

	changed := !m.baselined || in.Temperature != m.last.Temperature || in.Humidity != m.last.Humidity
	m.baselined = true
	m.last = in

	if changed {
		events = append(events, Event{
			Timestamp:   in.Time,
			Type:        EventReading,
			Temperature: in.Temperature,
			Humidity:    in.Humidity,
		})
	}
	return events
}

// IsBaselined reports whether at least one good read has been seen.
func (m *Monitor) IsBaselined() bool {
	return m.baselined
}

// Last returns the most recent good read.
func (m *Monitor) Last() (Input, bool) {
	return m.last, m.baselined
}

// Faulted reports whether the sensor is currently considered faulty.
func (m *Monitor) Faulted() bool {
	return m.faulted
}

// Streak returns the number of consecutive failures.
func (m *Monitor) Streak() int {
	return m.streak
}

// CountsSnapshot returns a copy of the read counters.
func (m *Monitor) CountsSnapshot() Counts {
	return m.counts.clone()
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed, or
// if interval is <= 0 (disabled). Unlike readings, heartbeats are sent while
// the sensor is faulty so a silent sensor stays visible.
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts.clone(),
	}
}
