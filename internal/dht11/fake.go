package dht11

import "time"

// Nominal line timings of a DHT11, used to script FakeLine.
const (
	NominalResponseDelay = 20 * time.Microsecond
	NominalAckLow        = 80 * time.Microsecond
	NominalAckHigh       = 80 * time.Microsecond
	NominalBitLow        = 50 * time.Microsecond
	NominalZeroHigh      = 26 * time.Microsecond
	NominalOneHigh       = 70 * time.Microsecond
)

// Segment is a stretch of time during which the simulated sensor holds the
// line at one level.
type Segment struct {
	Level    Level
	Duration time.Duration
}

// Waveform is what the simulated sensor does after the host releases the line.
type Waveform []Segment

// Index of the first bit-slot segment in a waveform built by PulseWaveform.
const firstBitSegment = 3

// FrameWaveform scripts a well-behaved sensor transmitting f.
func FrameWaveform(f Frame) Waveform {
	var highs [FrameBits]time.Duration
	for i := range highs {
		highs[i] = NominalZeroHigh
		if f[i/8]&(1<<uint(7-i%8)) != 0 {
			highs[i] = NominalOneHigh
		}
	}
	return PulseWaveform(highs)
}

// PulseWaveform scripts a sensor whose bit-slots have the given high widths.
func PulseWaveform(highs [FrameBits]time.Duration) Waveform {
	w := Waveform{
		{High, NominalResponseDelay},
		{Low, NominalAckLow},
		{High, NominalAckHigh},
	}
	for _, h := range highs {
		w = append(w, Segment{Low, NominalBitLow}, Segment{High, h})
	}
	// The sensor ends the frame with a final low before letting go.
	return append(w, Segment{Low, NominalBitLow})
}

// BitLow returns the index of bit-slot i's low segment.
func (w Waveform) BitLow(i int) int {
	return firstBitSegment + 2*i
}

// BitHigh returns the index of bit-slot i's high segment.
func (w Waveform) BitHigh(i int) int {
	return firstBitSegment + 2*i + 1
}

// Stretch returns a copy of w with segment i lasting d.
func (w Waveform) Stretch(i int, d time.Duration) Waveform {
	out := make(Waveform, len(w))
	copy(out, w)
	out[i].Duration = d
	return out
}

// FakeLine is a test double for a pin with a DHT11 attached. It also serves as
// the Clock and Sleeper so that the simulated sensor and the driver share one
// virtual timeline.
type FakeLine struct {
	// Tick is how far the virtual clock moves on each call to Now.
	// Zero means one microsecond.
	Tick time.Duration

	// Responses holds the waveform played after each handshake's release,
	// in attempt order. Later attempts reuse the last entry. Once a waveform
	// runs out, the line rests at its pull level.
	Responses []Waveform

	// Fail makes the named operation return the error. Operation names match
	// those recorded in Ops, without the argument ("direction", "level",
	// "pullup", "pulldown").
	Fail map[string]error

	// Ops records every configuration call in order, e.g. "direction:input".
	Ops []string

	// Sleeps records every call to Sleep.
	Sleeps []time.Duration

	now        time.Duration
	dir        Direction
	driven     Level
	pullUp     bool
	releasedAt time.Duration
	starts     int
	maxSegment int
}

// NewFakeLine creates a FakeLine that plays the given waveforms.
func NewFakeLine(responses ...Waveform) *FakeLine {
	return &FakeLine{Responses: responses, maxSegment: -1}
}

func (f *FakeLine) String() string {
	return "fake"
}

func (f *FakeLine) record(op, arg string) error {
	f.Ops = append(f.Ops, op+":"+arg)
	if err, ok := f.Fail[op]; ok {
		return err
	}
	return nil
}

// SetDirection implements Pin.
func (f *FakeLine) SetDirection(d Direction) error {
	if err := f.record("direction", d.String()); err != nil {
		return err
	}
	if d == Input && f.dir == Output {
		f.releasedAt = f.now
	}
	f.dir = d
	return nil
}

// SetLevel implements Pin.
func (f *FakeLine) SetLevel(l Level) error {
	if err := f.record("level", l.String()); err != nil {
		return err
	}
	if f.dir == Output && l == Low {
		f.starts++
	}
	f.driven = l
	return nil
}

// EnablePullUp implements Pin.
func (f *FakeLine) EnablePullUp() error {
	if err := f.record("pullup", "on"); err != nil {
		return err
	}
	f.pullUp = true
	return nil
}

// DisablePullUp implements Pin.
func (f *FakeLine) DisablePullUp() error {
	if err := f.record("pullup", "off"); err != nil {
		return err
	}
	f.pullUp = false
	return nil
}

// DisablePullDown implements Pin.
func (f *FakeLine) DisablePullDown() error {
	return f.record("pulldown", "off")
}

// Get implements Pin.
func (f *FakeLine) Get() Level {
	if f.dir == Output {
		return f.driven
	}

	if f.starts > 0 && len(f.Responses) > 0 {
		idx := f.starts - 1
		if idx >= len(f.Responses) {
			idx = len(f.Responses) - 1
		}
		elapsed := f.now - f.releasedAt
		var end time.Duration
		for i, seg := range f.Responses[idx] {
			end += seg.Duration
			if elapsed < end {
				if i > f.maxSegment {
					f.maxSegment = i
				}
				return seg.Level
			}
		}
	}

	if f.pullUp {
		return High
	}
	return Low
}

// Now implements Clock. Every call advances virtual time by Tick.
func (f *FakeLine) Now() time.Duration {
	tick := f.Tick
	if tick <= 0 {
		tick = time.Microsecond
	}
	f.now += tick
	return f.now
}

// Sleep implements Sleeper by advancing virtual time.
func (f *FakeLine) Sleep(d time.Duration) {
	f.Sleeps = append(f.Sleeps, d)
	f.now += d
}

// Elapsed returns the virtual time consumed so far.
func (f *FakeLine) Elapsed() time.Duration {
	return f.now
}

// Handshakes returns how many start pulses the host has sent.
func (f *FakeLine) Handshakes() int {
	return f.starts
}

// PullUp reports whether the pull-up is currently enabled.
func (f *FakeLine) PullUp() bool {
	return f.pullUp
}

// Direction reports the current pin direction.
func (f *FakeLine) Direction() Direction {
	return f.dir
}

// Level reports the level the host is driving while in output mode.
func (f *FakeLine) Level() Level {
	return f.driven
}

// MaxSegment returns the index of the furthest waveform segment the host has
// sampled, or -1 if it has sampled none.
func (f *FakeLine) MaxSegment() int {
	return f.maxSegment
}

// LastOp returns the most recent configuration call.
func (f *FakeLine) LastOp() string {
	if len(f.Ops) == 0 {
		return ""
	}
	return f.Ops[len(f.Ops)-1]
}

// Reset rewinds the line to power-on state, keeping the script.
func (f *FakeLine) Reset() {
	*f = FakeLine{Tick: f.Tick, Responses: f.Responses, Fail: f.Fail, maxSegment: -1}
}
