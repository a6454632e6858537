package dht11

// decode samples the 40 bit-slots that follow a successful handshake.
//
// Each slot starts with a ~50µs low phase followed by a high phase of ~26µs
// for a 0 or ~70µs for a 1. The first slot's low phase also ends the
// acknowledgment's high phase. Any timeout aborts the frame.
func (s *Sensor) decode() (Frame, error) {
	var f Frame
	t := s.timings
	for i := 0; i < FrameBits; i++ {
		if err := waitForLevel(s.pin, s.clock, Low, t.BitStartTimeout, ErrBitStartTimeout, PhaseAwaitBitLow, i); err != nil {
			return Frame{}, err
		}
		if err := waitForLevel(s.pin, s.clock, High, t.BitStartTimeout, ErrBitStartTimeout, PhaseAwaitBitLow, i); err != nil {
			return Frame{}, err
		}

		d, err := measureHigh(s.pin, s.clock, t.HighMeasureTimeout, i)
		if err != nil {
			return Frame{}, err
		}
		if bitFromPulse(d, t.BitThreshold) {
			f.setBit(i)
		}
	}
	return f, nil
}
