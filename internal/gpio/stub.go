//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/dht11-sensor/internal/dht11"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevLine is not available on non-Linux platforms.
type CdevLine struct{ unsupportedLine }

// NewCdevLine returns an error on non-Linux platforms.
func NewCdevLine(chipName string, offset int) (*CdevLine, error) {
	return nil, errUnsupported
}

// RPIOLine is not available on non-Linux platforms.
type RPIOLine struct{ unsupportedLine }

// NewRPIOLine returns an error on non-Linux platforms.
func NewRPIOLine(bcm int) (*RPIOLine, error) {
	return nil, errUnsupported
}

type unsupportedLine struct{}

func (unsupportedLine) SetDirection(dht11.Direction) error { return errUnsupported }
func (unsupportedLine) SetLevel(dht11.Level) error         { return errUnsupported }
func (unsupportedLine) Get() dht11.Level                   { return dht11.Low }
func (unsupportedLine) EnablePullUp() error                { return errUnsupported }
func (unsupportedLine) DisablePullUp() error               { return errUnsupported }
func (unsupportedLine) DisablePullDown() error             { return errUnsupported }
func (unsupportedLine) Close() error                       { return nil }
