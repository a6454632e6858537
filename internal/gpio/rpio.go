//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/sweeney/dht11-sensor/internal/dht11"
)

var (
	rpioMu   sync.Mutex
	rpioRefs int
)

// RPIOLine drives the sensor line through the Raspberry Pi's memory-mapped
// GPIO registers. Reads cost a few hundred nanoseconds, which leaves plenty
// of margin for the protocol's microsecond timing.
type RPIOLine struct {
	pin    rpio.Pin
	pullUp bool
	closed bool
}

// NewRPIOLine maps the GPIO registers and configures bcm as an output driven
// high.
func NewRPIOLine(bcm int) (*RPIOLine, error) {
	rpioMu.Lock()
	defer rpioMu.Unlock()

	if rpioRefs == 0 {
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("open rpio: %w", err)
		}
	}
	rpioRefs++

	l := &RPIOLine{pin: rpio.Pin(bcm)}
	l.pin.Output()
	l.pin.PullOff()
	l.pin.High()
	return l, nil
}

func (l *RPIOLine) String() string {
	return fmt.Sprintf("BCM%d", int(l.pin))
}

// SetDirection implements dht11.Pin.
func (l *RPIOLine) SetDirection(d dht11.Direction) error {
	if d == dht11.Input {
		l.pin.Input()
	} else {
		l.pin.Output()
	}
	return nil
}

// SetLevel implements dht11.Pin.
func (l *RPIOLine) SetLevel(v dht11.Level) error {
	if v == dht11.High {
		l.pin.High()
	} else {
		l.pin.Low()
	}
	return nil
}

// Get implements dht11.Pin.
func (l *RPIOLine) Get() dht11.Level {
	if l.pin.Read() == rpio.High {
		return dht11.High
	}
	return dht11.Low
}

// EnablePullUp implements dht11.Pin.
func (l *RPIOLine) EnablePullUp() error {
	l.pin.PullUp()
	l.pullUp = true
	return nil
}

// DisablePullUp implements dht11.Pin.
func (l *RPIOLine) DisablePullUp() error {
	l.pin.PullOff()
	l.pullUp = false
	return nil
}

// DisablePullDown implements dht11.Pin. The BCM pull control is a single
// setting, so an active pull-up already excludes the pull-down.
func (l *RPIOLine) DisablePullDown() error {
	if !l.pullUp {
		l.pin.PullOff()
	}
	return nil
}

// Close leaves the pin as an input with no pull and unmaps the registers once
// the last line is closed.
func (l *RPIOLine) Close() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	l.pin.Input()
	l.pin.PullOff()

	rpioRefs--
	if rpioRefs == 0 {
		if err := rpio.Close(); err != nil {
			return fmt.Errorf("close rpio: %w", err)
		}
	}
	return nil
}
