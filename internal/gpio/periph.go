package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/dht11-sensor/internal/dht11"
)

// PeriphName returns periph.io's name for a BCM pin number.
func PeriphName(bcm int) string {
	return fmt.Sprintf("GPIO%d", bcm)
}

// PeriphLine drives the sensor line through periph.io. periph folds
// direction and pull into one call, so the pull is tracked here and reapplied
// whenever the pin is switched to input.
type PeriphLine struct {
	pin  pgpio.PinIO
	dir  dht11.Direction
	pull pgpio.Pull
}

// NewPeriphLine initialises the host drivers and configures the named pin as
// an output driven high.
func NewPeriphLine(name string) (*PeriphLine, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periph: no pin named %q", name)
	}
	if err := p.Out(pgpio.High); err != nil {
		return nil, fmt.Errorf("pin %s out high: %w", name, err)
	}

	return &PeriphLine{pin: p, dir: dht11.Output, pull: pgpio.Float}, nil
}

func (l *PeriphLine) String() string {
	return l.pin.Name()
}

// SetDirection implements dht11.Pin. Switching to output drives the line high
// until SetLevel says otherwise.
func (l *PeriphLine) SetDirection(d dht11.Direction) error {
	l.dir = d
	if d == dht11.Input {
		return l.pin.In(l.pull, pgpio.NoEdge)
	}
	return l.pin.Out(pgpio.High)
}

// SetLevel implements dht11.Pin.
func (l *PeriphLine) SetLevel(v dht11.Level) error {
	if l.dir != dht11.Output {
		return nil
	}
	return l.pin.Out(pgpio.Level(v == dht11.High))
}

// Get implements dht11.Pin.
func (l *PeriphLine) Get() dht11.Level {
	if l.pin.Read() == pgpio.High {
		return dht11.High
	}
	return dht11.Low
}

func (l *PeriphLine) setPull(p pgpio.Pull) error {
	l.pull = p
	if l.dir != dht11.Input {
		return nil
	}
	return l.pin.In(p, pgpio.NoEdge)
}

// EnablePullUp implements dht11.Pin.
func (l *PeriphLine) EnablePullUp() error {
	return l.setPull(pgpio.PullUp)
}

// DisablePullUp implements dht11.Pin.
func (l *PeriphLine) DisablePullUp() error {
	if l.pull != pgpio.PullUp {
		return nil
	}
	return l.setPull(pgpio.Float)
}

// DisablePullDown implements dht11.Pin.
func (l *PeriphLine) DisablePullDown() error {
	if l.pull != pgpio.PullDown {
		return nil
	}
	return l.setPull(pgpio.Float)
}

// Close halts the pin.
func (l *PeriphLine) Close() error {
	if err := l.pin.Halt(); err != nil {
		return fmt.Errorf("halt pin %s: %w", l.pin.Name(), err)
	}
	return nil
}
