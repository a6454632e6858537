package gpio

import (
	"github.com/sweeney/dht11-sensor/internal/dht11"
)

// Sample is one transmission of the simulated sensor.
type Sample struct {
	Temperature uint8
	Humidity    uint8
	// Corrupt sends the frame with a wrong checksum.
	Corrupt bool
	// Silent makes the sensor ignore the start signal.
	Silent bool
}

// Frame returns the wire frame for s.
func (s Sample) Frame() dht11.Frame {
	f := dht11.Frame{s.Humidity, 0, s.Temperature, 0, 0}
	f[4] = f.Checksum()
	if s.Corrupt {
		f[4]++
	}
	return f
}

// SimLine is a simulated sensor line. Each handshake plays the next scripted
// sample; once the samples run out the last one repeats. It runs on its own
// virtual clock, so the sensor must be created with dht11.WithClock and
// dht11.WithSleeper pointing at the line.
type SimLine struct {
	*dht11.FakeLine

	// Samples contains the scripted transmissions.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool
}

// NewSimLine creates a SimLine with the given samples. With no samples the
// sensor reports 21°C and 45%.
func NewSimLine(samples []Sample) *SimLine {
	if len(samples) == 0 {
		samples = []Sample{{Temperature: 21, Humidity: 45}}
	}
	return &SimLine{FakeLine: dht11.NewFakeLine(), Samples: samples}
}

func (s *SimLine) String() string {
	return "sim"
}

// SetLevel loads the next sample whenever the host starts a handshake.
func (s *SimLine) SetLevel(l dht11.Level) error {
	if l == dht11.Low && s.Direction() == dht11.Output {
		s.next()
	}
	return s.FakeLine.SetLevel(l)
}

func (s *SimLine) next() {
	sample := s.Samples[s.index]
	if s.index < len(s.Samples)-1 {
		s.index++
	}

	var w dht11.Waveform
	if !sample.Silent {
		w = dht11.FrameWaveform(sample.Frame())
	}
	s.Responses = []dht11.Waveform{w}

	// Only the current transaction is of interest.
	s.Ops = s.Ops[:0]
	s.Sleeps = s.Sleeps[:0]
}

// Close marks the line as closed.
func (s *SimLine) Close() error {
	s.Closed = true
	return nil
}

// Reset rewinds to the first sample.
func (s *SimLine) Reset() {
	s.index = 0
	s.Closed = false
	s.FakeLine.Reset()
}
