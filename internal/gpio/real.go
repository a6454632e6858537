//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/dht11-sensor/internal/dht11"
)

// CdevLine drives the sensor line through the Linux GPIO character device.
// Direction and bias changes are applied with a single Reconfigure each.
type CdevLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	name string

	dir      dht11.Direction
	level    int
	pullUp   bool
	pullDown bool
}

// NewCdevLine requests offset on chip as an output driven high, which is the
// idle state of the bus.
func NewCdevLine(chipName string, offset int) (*CdevLine, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("dht11-sensor"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(1), gpiocdev.WithBiasDisabled)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pin %d: %w", offset, err)
	}

	return &CdevLine{
		chip:  chip,
		line:  line,
		name:  fmt.Sprintf("%s:%d", chipName, offset),
		dir:   dht11.Output,
		level: 1,
	}, nil
}

func (l *CdevLine) String() string {
	return l.name
}

func (l *CdevLine) bias() gpiocdev.LineConfigOption {
	switch {
	case l.pullUp:
		return gpiocdev.WithPullUp
	case l.pullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}

func (l *CdevLine) reconfigure() error {
	if l.dir == dht11.Input {
		return l.line.Reconfigure(gpiocdev.AsInput, l.bias())
	}
	return l.line.Reconfigure(gpiocdev.AsOutput(l.level), l.bias())
}

// SetDirection switches the line between driving and sensing.
func (l *CdevLine) SetDirection(d dht11.Direction) error {
	if d == l.dir {
		return nil
	}
	l.dir = d
	return l.reconfigure()
}

// SetLevel drives the line. In input mode the level is kept for the next
// switch to output.
func (l *CdevLine) SetLevel(v dht11.Level) error {
	l.level = int(v)
	if l.dir != dht11.Output {
		return nil
	}
	return l.line.SetValue(l.level)
}

// Get samples the line. A failed read reports Low.
func (l *CdevLine) Get() dht11.Level {
	v, err := l.line.Value()
	if err != nil || v == 0 {
		return dht11.Low
	}
	return dht11.High
}

// EnablePullUp implements dht11.Pin.
func (l *CdevLine) EnablePullUp() error {
	if l.pullUp {
		return nil
	}
	l.pullUp = true
	return l.reconfigure()
}

// DisablePullUp implements dht11.Pin.
func (l *CdevLine) DisablePullUp() error {
	if !l.pullUp {
		return nil
	}
	l.pullUp = false
	return l.reconfigure()
}

// DisablePullDown implements dht11.Pin.
func (l *CdevLine) DisablePullDown() error {
	if !l.pullDown {
		return nil
	}
	l.pullDown = false
	return l.reconfigure()
}

// Close releases the line.
// Leaves it as an input with no bias so nothing is driven after exit.
func (l *CdevLine) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
