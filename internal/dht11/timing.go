package dht11

import "time"

// The helpers in this file only read the pin. They spin on the clock without
// yielding, so every loop must stay free of allocation and logging.

// delay busy-waits for at least d.
func delay(clock Clock, d time.Duration) {
	start := clock.Now()
	for clock.Now()-start < d {
	}
}

// waitForLevel polls pin until it reads target. If timeout elapses first it
// returns a *TimeoutError wrapping kind.
func waitForLevel(pin Pin, clock Clock, target Level, timeout time.Duration, kind error, phase Phase, bit int) error {
	start := clock.Now()
	for pin.Get() != target {
		if elapsed := clock.Now() - start; elapsed > timeout {
			return &TimeoutError{Kind: kind, Phase: phase, Bit: bit, Elapsed: elapsed, Limit: timeout}
		}
	}
	return nil
}

// measureHigh returns how long the line stays high, starting now. A line that
// is still high after limit is reported as stuck.
func measureHigh(pin Pin, clock Clock, limit time.Duration, bit int) (time.Duration, error) {
	start := clock.Now()
	for pin.Get() == High {
		if elapsed := clock.Now() - start; elapsed > limit {
			return 0, &TimeoutError{Kind: ErrHighMeasureTimeout, Phase: PhaseMeasureHigh, Bit: bit, Elapsed: elapsed, Limit: limit}
		}
	}
	return clock.Now() - start, nil
}
