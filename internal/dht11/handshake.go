package dht11

import "github.com/sirupsen/logrus"

// handshake requests a transmission and waits for the sensor to acknowledge
// it, making up to Timings.Attempts attempts. On success the line is at the
// start of the acknowledgment's high phase with the pull-up enabled.
func (s *Sensor) handshake() error {
	var err error
	for attempt := 1; attempt <= s.timings.Attempts; attempt++ {
		if err = s.startSignal(); err != nil {
			return err
		}
		if err = s.awaitAck(); err == nil {
			return nil
		}

		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   Kind(err),
		}).Warn("handshake not acknowledged")

		if perr := s.pin.DisablePullUp(); perr != nil {
			return pinError("disable pull-up", perr)
		}
		if attempt < s.timings.Attempts {
			s.sleeper.Sleep(s.timings.RetryBackoff)
		}
	}
	return err
}

// startSignal holds the line low for the start pulse, releases it and hands it
// over to the sensor with the pull-up enabled.
func (s *Sensor) startSignal() error {
	if err := s.pin.SetDirection(Output); err != nil {
		return pinError("set output", err)
	}
	if err := s.pin.SetLevel(Low); err != nil {
		return pinError("set low", err)
	}
	delay(s.clock, s.timings.StartPulse)

	if err := s.pin.SetLevel(High); err != nil {
		return pinError("set high", err)
	}
	delay(s.clock, s.timings.Release)

	if err := s.pin.SetDirection(Input); err != nil {
		return pinError("set input", err)
	}
	if err := s.pin.EnablePullUp(); err != nil {
		return pinError("enable pull-up", err)
	}
	if err := s.pin.DisablePullDown(); err != nil {
		return pinError("disable pull-down", err)
	}
	return nil
}

// awaitAck expects the sensor to pull the line low and then release it.
func (s *Sensor) awaitAck() error {
	t := s.timings
	if err := waitForLevel(s.pin, s.clock, Low, t.AckTimeout, ErrHandshakeTimeoutLow, PhaseAwaitAckLow, -1); err != nil {
		return err
	}
	return waitForLevel(s.pin, s.clock, High, t.AckTimeout, ErrHandshakeTimeoutHigh, PhaseAwaitAckHigh, -1)
}
