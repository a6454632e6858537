package dht11

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNullReference is returned for a nil pin or a nil sensor handle.
	ErrNullReference = errors.New("dht11: null reference")
	// ErrHandshakeTimeoutLow means the sensor never pulled the line low after
	// the start signal.
	ErrHandshakeTimeoutLow = errors.New("dht11: handshake timeout waiting for low")
	// ErrHandshakeTimeoutHigh means the sensor's acknowledgment low phase
	// never ended.
	ErrHandshakeTimeoutHigh = errors.New("dht11: handshake timeout waiting for high")
	// ErrBitStartTimeout means a bit-slot's low phase never arrived or never
	// ended.
	ErrBitStartTimeout = errors.New("dht11: bit start timeout")
	// ErrHighMeasureTimeout means a bit-slot's high phase never ended.
	ErrHighMeasureTimeout = errors.New("dht11: high pulse measure timeout")
	// ErrChecksumMismatch means a full frame arrived but its checksum byte
	// does not match its payload.
	ErrChecksumMismatch = errors.New("dht11: checksum mismatch")
	// ErrPin wraps failures reported by the pin backend.
	ErrPin = errors.New("dht11: pin")
)

// Phase names a step of the read state machine.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseStartSignal   Phase = "start_signal"
	PhaseAwaitAckLow   Phase = "await_ack_low"
	PhaseAwaitAckHigh  Phase = "await_ack_high"
	PhaseAwaitBitLow   Phase = "await_bit_low"
	PhaseMeasureHigh   Phase = "measure_high_pulse"
	PhaseChecksumCheck Phase = "checksum_check"
	PhaseDone          Phase = "done"
	PhaseFailed        Phase = "failed"
)

// TimeoutError reports a wait on the line that exceeded its budget.
// It unwraps to one of the Err...Timeout sentinels.
type TimeoutError struct {
	Kind    error
	Phase   Phase
	Bit     int // bit-slot index, -1 during the handshake
	Elapsed time.Duration
	Limit   time.Duration
}

// Error implements error.
func (e *TimeoutError) Error() string {
	if e.Bit >= 0 {
		return fmt.Sprintf("%v (bit %d, %s, %v > %v)", e.Kind, e.Bit, e.Phase, e.Elapsed, e.Limit)
	}
	return fmt.Sprintf("%v (%s, %v > %v)", e.Kind, e.Phase, e.Elapsed, e.Limit)
}

func (e *TimeoutError) Unwrap() error {
	return e.Kind
}

// ChecksumError carries the frame that failed validation.
type ChecksumError struct {
	Frame Frame
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%v: got 0x%02x, want 0x%02x (frame %v)",
		ErrChecksumMismatch, e.Frame[4], e.Frame.Checksum(), e.Frame)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// Kind returns a stable short name for err, suitable for log fields, metric
// labels and payloads. A nil error is "ok".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNullReference):
		return "null_reference"
	case errors.Is(err, ErrHandshakeTimeoutLow):
		return "handshake_timeout_low"
	case errors.Is(err, ErrHandshakeTimeoutHigh):
		return "handshake_timeout_high"
	case errors.Is(err, ErrBitStartTimeout):
		return "bit_start_timeout"
	case errors.Is(err, ErrHighMeasureTimeout):
		return "high_measure_timeout"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, ErrPin):
		return "pin_error"
	default:
		return "unknown"
	}
}

// Kinds lists every value Kind can return for a failed read.
var Kinds = []string{
	"null_reference",
	"handshake_timeout_low",
	"handshake_timeout_high",
	"bit_start_timeout",
	"high_measure_timeout",
	"checksum_mismatch",
	"pin_error",
	"unknown",
}

func pinError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPin, op, err)
}
