package dht11

import "time"

// Protocol constants for the DHT11. The datasheet asks for a start pulse of at
// least 18ms; 20ms leaves room for clock jitter.
const (
	DefaultStartPulse         = 20 * time.Millisecond
	DefaultRelease            = 30 * time.Microsecond
	DefaultAckTimeout         = 200 * time.Microsecond
	DefaultBitStartTimeout    = 100 * time.Microsecond
	DefaultHighMeasureTimeout = 200 * time.Microsecond
	DefaultBitThreshold       = 50 * time.Microsecond
	DefaultRetryBackoff       = 10 * time.Millisecond
	DefaultAttempts           = 2

	// MinReadInterval is the recovery time the sensor needs between two
	// transmissions. It is the caller's job to respect it.
	MinReadInterval = time.Second
)

// FrameBits is the number of bit-slots in one transmission.
const FrameBits = 40

// Timings holds every threshold the protocol engine uses.
type Timings struct {
	// StartPulse is how long the line is held low to request a transmission.
	StartPulse time.Duration
	// Release is how long the line is driven high before switching to input.
	Release time.Duration
	// AckTimeout bounds each of the two acknowledgment phases.
	AckTimeout time.Duration
	// BitStartTimeout bounds each half of a bit-slot's low phase.
	BitStartTimeout time.Duration
	// HighMeasureTimeout is the longest a bit-slot's high phase may last.
	HighMeasureTimeout time.Duration
	// BitThreshold separates a 0 (<=) from a 1 (>).
	BitThreshold time.Duration
	// RetryBackoff is slept between failed handshake attempts.
	RetryBackoff time.Duration
	// Attempts is the total number of handshakes per read.
	Attempts int
}

// DefaultTimings returns the timings for a stock DHT11.
func DefaultTimings() Timings {
	return Timings{
		StartPulse:         DefaultStartPulse,
		Release:            DefaultRelease,
		AckTimeout:         DefaultAckTimeout,
		BitStartTimeout:    DefaultBitStartTimeout,
		HighMeasureTimeout: DefaultHighMeasureTimeout,
		BitThreshold:       DefaultBitThreshold,
		RetryBackoff:       DefaultRetryBackoff,
		Attempts:           DefaultAttempts,
	}
}

// withDefaults fills zero fields from DefaultTimings.
func (t Timings) withDefaults() Timings {
	d := DefaultTimings()
	if t.StartPulse <= 0 {
		t.StartPulse = d.StartPulse
	}
	if t.Release <= 0 {
		t.Release = d.Release
	}
	if t.AckTimeout <= 0 {
		t.AckTimeout = d.AckTimeout
	}
	if t.BitStartTimeout <= 0 {
		t.BitStartTimeout = d.BitStartTimeout
	}
	if t.HighMeasureTimeout <= 0 {
		t.HighMeasureTimeout = d.HighMeasureTimeout
	}
	if t.BitThreshold <= 0 {
		t.BitThreshold = d.BitThreshold
	}
	if t.RetryBackoff <= 0 {
		t.RetryBackoff = d.RetryBackoff
	}
	if t.Attempts <= 0 {
		t.Attempts = d.Attempts
	}
	return t
}

// WorstCase is the longest a single Read can occupy the caller.
func (t Timings) WorstCase() time.Duration {
	handshake := t.StartPulse + t.Release + 2*t.AckTimeout
	perBit := 2*t.BitStartTimeout + t.HighMeasureTimeout
	return time.Duration(t.Attempts)*handshake +
		time.Duration(t.Attempts-1)*t.RetryBackoff +
		FrameBits*perBit
}
