// Package gpio drives the tube's output lines and samples the battery
// comparator, with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/touch-tube/internal/logic"
)

// Default line offsets on gpiochip0 (BCM numbering).
const (
	DefaultChip          = "gpiochip0"
	DefaultPinOpen       = 17
	DefaultPinClose      = 27
	DefaultPinReference  = 22
	DefaultPinComparator = 23

	DefaultPulseWidth = 30 * time.Millisecond
)

// Line is a single output line.
type Line interface {
	SetValue(value int) error
}

// PulseLine drives the line active for width, then inactive.
// The line is driven inactive on every exit path, including a failed
// activation, and the first error is returned.
func PulseLine(l Line, width time.Duration, sleep func(time.Duration)) (err error) {
	defer func() {
		if derr := l.SetValue(0); derr != nil && err == nil {
			err = fmt.Errorf("deassert: %w", derr)
		}
	}()
	if err := l.SetValue(1); err != nil {
		return fmt.Errorf("assert: %w", err)
	}
	sleep(width)
	return nil
}

// Actuator pulses one of two mutually exclusive lines.
type Actuator struct {
	mu        sync.Mutex
	openLine  Line
	closeLine Line
	width     time.Duration
	sleep     func(time.Duration)
}

// NewActuator creates an actuator over the open and close lines.
func NewActuator(openLine, closeLine Line, width time.Duration) *Actuator {
	return &Actuator{
		openLine:  openLine,
		closeLine: closeLine,
		width:     width,
		sleep:     time.Sleep,
	}
}

// Pulse implements logic.Actuator.
func (a *Actuator) Pulse(ch logic.Channel) error {
	var l Line
	switch ch {
	case logic.ChannelOpen:
		l = a.openLine
	case logic.ChannelClose:
		l = a.closeLine
	default:
		return fmt.Errorf("unknown channel %d", ch)
	}
	if l == nil {
		return errors.New("gpio: line not configured")
	}

	// Never overlap pulses: the lines are mutually exclusive.
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := PulseLine(l, a.width, a.sleep); err != nil {
		return fmt.Errorf("pulse %s: %w", ch, err)
	}
	return nil
}
