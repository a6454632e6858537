// Package dht11 drives a DHT11 temperature and humidity sensor over a single
// GPIO line.
//
// The host requests a transmission by holding the line low, the sensor
// acknowledges with a low/high pulse pair and then sends 40 bits whose values
// are encoded in the width of each high pulse. Everything is sampled by
// polling: a Read occupies the calling goroutine for up to ~45ms and must not
// run concurrently with another Read on the same pin.
package dht11

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Sensor is a handle on one DHT11. The pin is fixed for its lifetime.
type Sensor struct {
	pin     Pin
	clock   Clock
	sleeper Sleeper
	timings Timings
	logger  logrus.FieldLogger

	last    Reading
	hasLast bool
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithClock replaces the monotonic clock used for all timing.
func WithClock(c Clock) Option {
	return func(s *Sensor) { s.clock = c }
}

// WithSleeper replaces the sleep used between handshake attempts.
func WithSleeper(sl Sleeper) Option {
	return func(s *Sensor) { s.sleeper = sl }
}

// WithTimings overrides protocol thresholds. Zero fields keep their defaults.
func WithTimings(t Timings) Option {
	return func(s *Sensor) { s.timings = t }
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Sensor) { s.logger = l }
}

// Init creates a Sensor on pin and leaves the line idle high.
// A nil pin yields ErrNullReference without touching any hardware.
func Init(pin Pin, opts ...Option) (*Sensor, error) {
	if pin == nil {
		return nil, ErrNullReference
	}

	s := &Sensor{
		pin:     pin,
		clock:   NewMonotonicClock(),
		sleeper: sleeperFunc(time.Sleep),
		timings: DefaultTimings(),
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timings = s.timings.withDefaults()
	s.logger = s.logger.WithFields(logrus.Fields{
		"sensor": "DHT11",
		"pin":    pinName(pin),
	})

	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init (re)applies the idle configuration: output, no bias, driven high.
// Calling it again on the same sensor is harmless.
func (s *Sensor) Init() error {
	if s == nil || s.pin == nil {
		return ErrNullReference
	}
	if err := s.pin.SetDirection(Output); err != nil {
		return pinError("set output", err)
	}
	if err := s.pin.DisablePullUp(); err != nil {
		return pinError("disable pull-up", err)
	}
	if err := s.pin.DisablePullDown(); err != nil {
		return pinError("disable pull-down", err)
	}
	if err := s.pin.SetLevel(High); err != nil {
		return pinError("set high", err)
	}
	return nil
}

// Pin returns the pin the sensor is attached to.
func (s *Sensor) Pin() Pin {
	return s.pin
}

// Timings returns the effective protocol thresholds.
func (s *Sensor) Timings() Timings {
	return s.timings
}

// Read performs one full transaction and returns the validated reading.
//
// The handshake is retried internally; any failure while receiving the frame
// aborts the read. Whatever the outcome, the pull-up is disabled before Read
// returns. Read does not update the value reported by Last.
func (s *Sensor) Read() (Reading, error) {
	if s == nil || s.pin == nil {
		return Reading{}, ErrNullReference
	}

	frame, err := s.receive()
	if err != nil {
		return Reading{}, err
	}

	r, err := frame.Validate()
	if err != nil {
		s.logger.WithField("frame", frame.String()).Debug("discarding frame")
		return Reading{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"frame":       frame.String(),
		"temperature": r.Temperature,
		"humidity":    r.Humidity,
	}).Debug("frame decoded")
	return r, nil
}

// receive runs the handshake and the bit loop. The pull-up enabled by the
// handshake is released here on every return path.
func (s *Sensor) receive() (frame Frame, err error) {
	defer func() {
		if rerr := s.pin.DisablePullUp(); rerr != nil && err == nil {
			frame, err = Frame{}, pinError("disable pull-up", rerr)
		}
	}()

	if err = s.handshake(); err != nil {
		return Frame{}, err
	}
	return s.decode()
}

// Store keeps r as the last known reading.
func (s *Sensor) Store(r Reading) {
	s.last = r
	s.hasLast = true
}

// Last returns the reading saved by Store, if any.
func (s *Sensor) Last() (Reading, bool) {
	return s.last, s.hasLast
}
