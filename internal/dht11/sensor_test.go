package dht11

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// newTestSensor initialises a Sensor on f with f as its clock and sleeper,
// then clears the recorded ops so tests only see what Read does.
func newTestSensor(t *testing.T, f *FakeLine) *Sensor {
	t.Helper()
	s, err := Init(f, WithClock(f), WithSleeper(f), WithLogger(quietLogger()))
	require.NoError(t, err)
	f.Ops = nil
	return s
}

func TestInitNilPin(t *testing.T) {
	s, err := Init(nil)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNullReference)
}

func TestInitNilSensor(t *testing.T) {
	var s *Sensor
	assert.ErrorIs(t, s.Init(), ErrNullReference)

	_, err := s.Read()
	assert.ErrorIs(t, err, ErrNullReference)

	_, err = (&Sensor{}).Read()
	assert.ErrorIs(t, err, ErrNullReference)
}

func TestInitConfiguresIdleHigh(t *testing.T) {
	f := NewFakeLine()
	s, err := Init(f, WithClock(f), WithSleeper(f), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, []string{"direction:output", "pullup:off", "pulldown:off", "level:HIGH"}, f.Ops)
	assert.Equal(t, Output, f.Direction())
	assert.Equal(t, High, f.Level())
	assert.Equal(t, Pin(f), s.Pin())
	assert.Zero(t, f.Handshakes())

	// Idempotent on the same pin.
	require.NoError(t, s.Init())
	assert.Equal(t, Output, f.Direction())
	assert.Equal(t, High, f.Level())
}

func TestInitPinFailure(t *testing.T) {
	f := NewFakeLine()
	f.Fail = map[string]error{"direction": errors.New("line busy")}

	s, err := Init(f, WithLogger(quietLogger()))
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrPin)
	assert.Contains(t, err.Error(), "line busy")
}

func TestInitFillsZeroTimings(t *testing.T) {
	f := NewFakeLine()
	s, err := Init(f, WithClock(f), WithTimings(Timings{Attempts: 3}), WithLogger(quietLogger()))
	require.NoError(t, err)

	want := DefaultTimings()
	want.Attempts = 3
	assert.Equal(t, want, s.Timings())
}

func TestReadValidFrame(t *testing.T) {
	frame := Frame{0x32, 0x00, 0x18, 0x00, 0x4A}
	f := NewFakeLine(FrameWaveform(frame))
	s := newTestSensor(t, f)

	r, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, uint8(24), r.Temperature)
	assert.Equal(t, uint8(50), r.Humidity)

	assert.Equal(t, 1, f.Handshakes())
	assert.Empty(t, f.Sleeps)
	assert.False(t, f.PullUp())
	assert.Equal(t, "pullup:off", f.LastOp())
}

func TestReadChecksumMismatch(t *testing.T) {
	frame := Frame{0x32, 0x00, 0x18, 0x00, 0x4B}
	f := NewFakeLine(FrameWaveform(frame))
	s := newTestSensor(t, f)

	r, err := s.Read()
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Equal(t, Reading{}, r)

	var ce *ChecksumError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, frame, ce.Frame)
	assert.False(t, f.PullUp())
}

func TestReadDecodesEveryBitPattern(t *testing.T) {
	frames := []Frame{
		{0x00, 0x00, 0x00, 0x00, 0x00},
		{0x5F, 0x00, 0x28, 0x00, 0x87},
		{0xAA, 0x55, 0xAA, 0x55, 0xFE},
		{0x01, 0x80, 0x7F, 0xFF, 0xFF},
	}
	for _, frame := range frames {
		t.Run(frame.String(), func(t *testing.T) {
			require.True(t, frame.Valid())
			f := NewFakeLine(FrameWaveform(frame))
			s := newTestSensor(t, f)

			got, err := s.receive()
			require.NoError(t, err)
			assert.Equal(t, frame, got)
		})
	}
}

func TestReadPulseWidthsAroundThreshold(t *testing.T) {
	var highs [FrameBits]time.Duration
	for i := range highs {
		highs[i] = 30 * time.Microsecond
	}
	// Humidity byte 0b10000001, checksum byte the same.
	highs[0] = 65 * time.Microsecond
	highs[7] = 65 * time.Microsecond
	highs[32] = 65 * time.Microsecond
	highs[39] = 65 * time.Microsecond

	f := NewFakeLine(PulseWaveform(highs))
	s := newTestSensor(t, f)

	r, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, Reading{Temperature: 0, Humidity: 0x81}, r)
}

func TestReadHandshakeNeverAcknowledged(t *testing.T) {
	f := NewFakeLine() // the line idles high: the sensor never answers
	s := newTestSensor(t, f)

	_, err := s.Read()
	require.ErrorIs(t, err, ErrHandshakeTimeoutLow)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, PhaseAwaitAckLow, te.Phase)

	assert.Equal(t, DefaultAttempts, f.Handshakes())
	assert.Equal(t, []time.Duration{DefaultRetryBackoff}, f.Sleeps)
	assert.False(t, f.PullUp())
	assert.Equal(t, "pullup:off", f.LastOp())
	assert.Equal(t, -1, f.MaxSegment(), "no bit-slot sampled")
}

func TestReadHandshakeAckLowNeverEnds(t *testing.T) {
	w := Waveform{{High, NominalResponseDelay}, {Low, time.Second}}
	f := NewFakeLine(w)
	s := newTestSensor(t, f)

	_, err := s.Read()
	require.ErrorIs(t, err, ErrHandshakeTimeoutHigh)
	assert.Equal(t, 2, f.Handshakes())
	assert.False(t, f.PullUp())
}

func TestReadHandshakeSecondAttemptSucceeds(t *testing.T) {
	frame := Frame{0x2D, 0x00, 0x16, 0x00, 0x43}
	f := NewFakeLine(nil, FrameWaveform(frame))
	s := newTestSensor(t, f)

	r, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, Reading{Temperature: 22, Humidity: 45}, r)
	assert.Equal(t, 2, f.Handshakes())
	assert.Equal(t, []time.Duration{DefaultRetryBackoff}, f.Sleeps)
}

func TestReadHandshakeConfiguresLine(t *testing.T) {
	f := NewFakeLine()
	s := newTestSensor(t, f)
	s.timings.Attempts = 1

	_, err := s.Read()
	require.Error(t, err)

	assert.Equal(t, []string{
		"direction:output",
		"level:LOW",
		"level:HIGH",
		"direction:input",
		"pullup:on",
		"pulldown:off",
		"pullup:off", // failed attempt
		"pullup:off", // release on exit
	}, f.Ops)
	assert.GreaterOrEqual(t, f.Elapsed(), DefaultStartPulse+DefaultRelease+DefaultAckTimeout)
}

func TestReadRespectsAttemptsOverride(t *testing.T) {
	f := NewFakeLine()
	s, err := Init(f, WithClock(f), WithSleeper(f), WithLogger(quietLogger()), WithTimings(Timings{Attempts: 4}))
	require.NoError(t, err)

	_, err = s.Read()
	require.ErrorIs(t, err, ErrHandshakeTimeoutLow)
	assert.Equal(t, 4, f.Handshakes())
	assert.Len(t, f.Sleeps, 3)
}

func TestReadStuckHighBit(t *testing.T) {
	w := FrameWaveform(Frame{0x32, 0x00, 0x18, 0x00, 0x4A})
	// Bit-slot 17, counting from one.
	stuck := w.BitHigh(16)
	w = w.Stretch(stuck, time.Second)

	f := NewFakeLine(w)
	s := newTestSensor(t, f)

	_, err := s.Read()
	require.ErrorIs(t, err, ErrHighMeasureTimeout)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 16, te.Bit)
	assert.Equal(t, DefaultHighMeasureTimeout, te.Limit)

	assert.Equal(t, stuck, f.MaxSegment(), "bits after the stuck slot are never sampled")
	assert.Equal(t, 1, f.Handshakes(), "no retry once the frame has started")
	assert.False(t, f.PullUp())
	assert.Equal(t, "pullup:off", f.LastOp())
}

func TestReadBitLowNeverEnds(t *testing.T) {
	w := FrameWaveform(Frame{0x32, 0x00, 0x18, 0x00, 0x4A})
	w = w.Stretch(w.BitLow(5), time.Second)

	f := NewFakeLine(w)
	s := newTestSensor(t, f)

	_, err := s.Read()
	require.ErrorIs(t, err, ErrBitStartTimeout)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 5, te.Bit)
	assert.Equal(t, w.BitLow(5), f.MaxSegment())
	assert.False(t, f.PullUp())
}

func TestReadAckHighNeverEnds(t *testing.T) {
	w := FrameWaveform(Frame{0x32, 0x00, 0x18, 0x00, 0x4A})
	w = w.Stretch(2, time.Second)

	f := NewFakeLine(w)
	s := newTestSensor(t, f)

	_, err := s.Read()
	require.ErrorIs(t, err, ErrBitStartTimeout)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.Bit)
}

func TestReadTruncatedFrame(t *testing.T) {
	w := FrameWaveform(Frame{0x32, 0x00, 0x18, 0x00, 0x4A})
	// The sensor stops after 20 bits and the pull-up holds the line high.
	w = w[:w.BitLow(20)]

	f := NewFakeLine(w)
	s := newTestSensor(t, f)

	_, err := s.Read()
	require.ErrorIs(t, err, ErrHighMeasureTimeout)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 19, te.Bit)
	assert.False(t, f.PullUp())
}

func TestReadPinFailureStillReleasesPullUp(t *testing.T) {
	f := NewFakeLine()
	s := newTestSensor(t, f)
	f.Fail = map[string]error{"pulldown": errors.New("EBUSY")}

	_, err := s.Read()
	require.ErrorIs(t, err, ErrPin)
	assert.Equal(t, 1, f.Handshakes())
	assert.False(t, f.PullUp())
	assert.Equal(t, "pullup:off", f.LastOp())
}

func TestReadReleaseFailureReported(t *testing.T) {
	f := NewFakeLine(FrameWaveform(Frame{0x32, 0x00, 0x18, 0x00, 0x4A}))
	s := newTestSensor(t, f)
	f.Fail = map[string]error{"pullup": errors.New("EIO")}

	// The pull-up cannot even be enabled, so the read fails on the pin.
	_, err := s.Read()
	require.ErrorIs(t, err, ErrPin)
}

func TestReadDoesNotStoreReading(t *testing.T) {
	f := NewFakeLine(FrameWaveform(Frame{0x32, 0x00, 0x18, 0x00, 0x4A}))
	s := newTestSensor(t, f)

	r, err := s.Read()
	require.NoError(t, err)

	_, ok := s.Last()
	assert.False(t, ok)

	s.Store(r)
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, r, last)
}

func TestReadRepeatable(t *testing.T) {
	frame := Frame{0x32, 0x00, 0x18, 0x00, 0x4A}
	f := NewFakeLine(FrameWaveform(frame))
	s := newTestSensor(t, f)

	for i := 0; i < 3; i++ {
		f.Reset()
		r, err := s.Read()
		require.NoError(t, err, "read %d", i)
		assert.Equal(t, Reading{Temperature: 24, Humidity: 50}, r)
	}
}

func TestReadWithinWorstCase(t *testing.T) {
	f := NewFakeLine()
	s := newTestSensor(t, f)

	_, err := s.Read()
	require.Error(t, err)
	assert.LessOrEqual(t, f.Elapsed(), s.Timings().WorstCase())
}
