package dht11

import (
	"fmt"
	"time"
)

// Frame is one transmission in wire order: humidity integer, humidity
// fraction, temperature integer, temperature fraction, checksum. The DHT11
// always sends zero fractions.
type Frame [5]byte

// Checksum returns the 8-bit sum of the four payload bytes. The sensor
// computes it with the same wraparound.
func (f Frame) Checksum() byte {
	return f[0] + f[1] + f[2] + f[3]
}

// Valid reports whether the checksum byte matches the payload.
func (f Frame) Valid() bool {
	return f[4] == f.Checksum()
}

// Validate accepts the frame and extracts the integer readings, or rejects it
// with a *ChecksumError.
func (f Frame) Validate() (Reading, error) {
	if !f.Valid() {
		return Reading{}, &ChecksumError{Frame: f}
	}
	return Reading{Temperature: f[2], Humidity: f[0]}, nil
}

func (f Frame) String() string {
	return fmt.Sprintf("[0x%02x 0x%02x 0x%02x 0x%02x 0x%02x]", f[0], f[1], f[2], f[3], f[4])
}

// setBit records a 1 in bit-slot i, most significant bit first.
func (f *Frame) setBit(i int) {
	f[i/8] |= 1 << uint(7-i%8)
}

// bitFromPulse classifies a bit-slot by the length of its high phase.
// A pulse exactly at the threshold is a 0.
func bitFromPulse(d, threshold time.Duration) bool {
	return d > threshold
}

// Reading is a validated measurement.
type Reading struct {
	Temperature uint8 // degrees Celsius
	Humidity    uint8 // percent relative humidity
}

func (r Reading) String() string {
	return fmt.Sprintf("Temperature: %d°C   Humidity: %d%%", r.Temperature, r.Humidity)
}
