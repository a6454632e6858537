// Package gpio provides the data line a DHT11 is attached to.
// The real implementations drive Linux GPIO through one of several libraries.
// The simulated implementation plays a scripted sensor for running without
// hardware.
package gpio

import (
	"fmt"
	"io"

	"github.com/sweeney/dht11-sensor/internal/dht11"
)

// Line is a pin the sensor driver can use, plus the resources behind it.
type Line interface {
	dht11.Pin
	io.Closer
}

// Backend selects the library used to access the pin.
type Backend string

const (
	// BackendCdev uses the Linux GPIO character device (go-gpiocdev).
	BackendCdev Backend = "gpiocdev"
	// BackendRPIO maps the Raspberry Pi GPIO registers (go-rpio).
	BackendRPIO Backend = "rpio"
	// BackendPeriph uses periph.io's host drivers.
	BackendPeriph Backend = "periph"
	// BackendSim simulates a sensor in memory.
	BackendSim Backend = "sim"
)

// Backends lists the accepted Backend values.
var Backends = []Backend{BackendCdev, BackendRPIO, BackendPeriph, BackendSim}

// Default pin (BCM numbering) and chip.
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 4
)

// Config selects and addresses a line.
type Config struct {
	Backend Backend
	Chip    string // gpiocdev only
	Pin     int    // BCM number / chip offset

	// Samples scripts the simulated sensor.
	Samples []Sample
}

// Open returns the line described by cfg.
func Open(cfg Config) (Line, error) {
	switch cfg.Backend {
	case BackendCdev, "":
		chip := cfg.Chip
		if chip == "" {
			chip = DefaultChip
		}
		l, err := NewCdevLine(chip, cfg.Pin)
		if err != nil {
			return nil, err
		}
		return l, nil
	case BackendRPIO:
		l, err := NewRPIOLine(cfg.Pin)
		if err != nil {
			return nil, err
		}
		return l, nil
	case BackendPeriph:
		l, err := NewPeriphLine(PeriphName(cfg.Pin))
		if err != nil {
			return nil, err
		}
		return l, nil
	case BackendSim:
		return NewSimLine(cfg.Samples), nil
	}
	return nil, fmt.Errorf("gpio: unknown backend %q", cfg.Backend)
}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("gpio: unknown backend %q (want one of %v)", s, Backends)
}
