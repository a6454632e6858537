package dht11

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrNullReference, "null_reference"},
		{&TimeoutError{Kind: ErrHandshakeTimeoutLow, Bit: -1}, "handshake_timeout_low"},
		{&TimeoutError{Kind: ErrHandshakeTimeoutHigh, Bit: -1}, "handshake_timeout_high"},
		{&TimeoutError{Kind: ErrBitStartTimeout, Bit: 3}, "bit_start_timeout"},
		{&TimeoutError{Kind: ErrHighMeasureTimeout, Bit: 16}, "high_measure_timeout"},
		{&ChecksumError{}, "checksum_mismatch"},
		{pinError("set low", errors.New("EBUSY")), "pin_error"},
		{fmt.Errorf("read sensor: %w", ErrChecksumMismatch), "checksum_mismatch"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestKindsCoversEveryFailure(t *testing.T) {
	for _, err := range []error{
		ErrNullReference, ErrHandshakeTimeoutLow, ErrHandshakeTimeoutHigh,
		ErrBitStartTimeout, ErrHighMeasureTimeout, ErrChecksumMismatch, ErrPin,
	} {
		assert.Contains(t, Kinds, Kind(err))
	}
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{
		Kind:    ErrHighMeasureTimeout,
		Phase:   PhaseMeasureHigh,
		Bit:     16,
		Elapsed: 201 * time.Microsecond,
		Limit:   200 * time.Microsecond,
	}
	assert.Equal(t, "dht11: high pulse measure timeout (bit 16, measure_high_pulse, 201µs > 200µs)", err.Error())

	hs := &TimeoutError{Kind: ErrHandshakeTimeoutLow, Phase: PhaseAwaitAckLow, Bit: -1, Elapsed: 201 * time.Microsecond, Limit: 200 * time.Microsecond}
	assert.Equal(t, "dht11: handshake timeout waiting for low (await_ack_low, 201µs > 200µs)", hs.Error())
}

func TestChecksumErrorMessage(t *testing.T) {
	err := &ChecksumError{Frame: Frame{0x32, 0x00, 0x18, 0x00, 0x4B}}
	assert.Equal(t, "dht11: checksum mismatch: got 0x4b, want 0x4a (frame [0x32 0x00 0x18 0x00 0x4b])", err.Error())
}

func TestTimingsWorstCase(t *testing.T) {
	got := DefaultTimings().WorstCase()
	assert.Greater(t, got, 40*time.Millisecond)
	assert.Less(t, got, 70*time.Millisecond)
}
