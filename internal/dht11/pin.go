package dht11

import (
	"fmt"
	"time"
)

// Level is the logical state of the data line.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Direction selects whether the pin drives or senses the line.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Pin is the digital pin the sensor is wired to.
//
// Get sits on the timing-critical path and is polled in tight loops, so it
// reports a level only. Backends that can fail on a read should report Low,
// which surfaces as a timeout.
type Pin interface {
	SetDirection(d Direction) error
	SetLevel(l Level) error
	Get() Level
	EnablePullUp() error
	DisablePullUp() error
	DisablePullDown() error
}

// Clock is a monotonic time source with at least microsecond resolution.
// Now returns the time elapsed since an arbitrary fixed origin.
type Clock interface {
	Now() time.Duration
}

// Sleeper yields the calling goroutine. It is only used between handshake
// attempts, never while sampling the line.
type Sleeper interface {
	Sleep(d time.Duration)
}

type monotonicClock struct {
	origin time.Time
}

// NewMonotonicClock returns a Clock backed by the runtime's monotonic clock.
func NewMonotonicClock() Clock {
	return monotonicClock{origin: time.Now()}
}

func (c monotonicClock) Now() time.Duration {
	return time.Since(c.origin)
}

type sleeperFunc func(time.Duration)

func (f sleeperFunc) Sleep(d time.Duration) { f(d) }

func pinName(p Pin) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
