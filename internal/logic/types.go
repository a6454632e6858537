// Package logic contains pure business logic for turning sensor reads into
// events. This package has NO external dependencies (no GPIO, MQTT, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// EventType identifies an event to be published.
type EventType string

const (
	// EventReading carries a new or changed measurement.
	EventReading EventType = "READING"
	// EventFault is emitted once the sensor has failed FaultAfter reads in a row.
	EventFault EventType = "SENSOR_FAULT"
	// EventRecovered is emitted on the first good read after a fault.
	EventRecovered EventType = "SENSOR_RECOVERED"
)

// Event is a notable change to be published.
type Event struct {
	Timestamp   time.Time
	Type        EventType
	Temperature uint8
	Humidity    uint8
	// Error is the kind of the last failure (fault and recovery events).
	Error string
	// Failures is the length of the failure streak (fault and recovery events).
	Failures int
}

// Input is the outcome of one read attempt.
type Input struct {
	Temperature uint8
	Humidity    uint8
	// Err is the failure kind, empty for a good read.
	Err  string
	Time time.Time
}

// OK reports whether the read succeeded.
func (in Input) OK() bool {
	return in.Err == ""
}

// Counts tracks read outcomes since startup.
type Counts struct {
	Reads    int
	OK       int
	Failures map[string]int
	Faults   int
}

// Total returns the number of failed reads.
func (c Counts) Total() int {
	n := 0
	for _, v := range c.Failures {
		n += v
	}
	return n
}

func (c Counts) clone() Counts {
	out := c
	out.Failures = make(map[string]int, len(c.Failures))
	for k, v := range c.Failures {
		out.Failures[k] = v
	}
	return out
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
