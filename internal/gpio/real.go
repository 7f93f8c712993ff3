//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealActuator drives the tube through two output lines on a Linux GPIO
// character device.
type RealActuator struct {
	*Actuator
	openPin  *gpiocdev.Line
	closePin *gpiocdev.Line
}

// NewRealActuator requests the open and close lines as outputs, both low.
func NewRealActuator(chip string, pinOpen, pinClose int, width time.Duration) (*RealActuator, error) {
	openLine, err := gpiocdev.RequestLine(chip, pinOpen, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request open pin %d: %w", pinOpen, err)
	}

	closeLine, err := gpiocdev.RequestLine(chip, pinClose, gpiocdev.AsOutput(0))
	if err != nil {
		openLine.Close()
		return nil, fmt.Errorf("request close pin %d: %w", pinClose, err)
	}

	return &RealActuator{
		Actuator: NewActuator(openLine, closeLine, width),
		openPin:  openLine,
		closePin: closeLine,
	}, nil
}

// Close releases the lines.
// Both lines are driven low and returned to input with pull-down
// (matching Pi boot defaults) so the tube driver never sees a floating
// input across a restart.
func (r *RealActuator) Close() error {
	var errs []error
	for name, l := range map[string]*gpiocdev.Line{"open": r.openPin, "close": r.closePin} {
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("deassert %s pin: %w", name, err))
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealComparator powers a voltage reference through one output line and
// reads the comparator result on an input line.
type RealComparator struct {
	refPin   *gpiocdev.Line
	cmpPin   *gpiocdev.Line
	tripHigh bool
}

// NewRealComparator requests the reference line as a low output and the
// comparator line as an input. tripHigh selects the comparator polarity.
func NewRealComparator(chip string, pinRef, pinCmp int, tripHigh bool) (*RealComparator, error) {
	refLine, err := gpiocdev.RequestLine(chip, pinRef, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request reference pin %d: %w", pinRef, err)
	}

	cmpLine, err := gpiocdev.RequestLine(chip, pinCmp, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		refLine.Close()
		return nil, fmt.Errorf("request comparator pin %d: %w", pinCmp, err)
	}

	return &RealComparator{
		refPin:   refLine,
		cmpPin:   cmpLine,
		tripHigh: tripHigh,
	}, nil
}

// EnableReference powers the voltage reference.
func (c *RealComparator) EnableReference() error {
	if err := c.refPin.SetValue(1); err != nil {
		return fmt.Errorf("enable reference: %w", err)
	}
	return nil
}

// Tripped reports whether the supply is below the reference.
func (c *RealComparator) Tripped() (bool, error) {
	v, err := c.cmpPin.Value()
	if err != nil {
		return false, fmt.Errorf("read comparator pin: %w", err)
	}
	return (v == 1) == c.tripHigh, nil
}

// DisableReference powers the voltage reference down.
func (c *RealComparator) DisableReference() error {
	if err := c.refPin.SetValue(0); err != nil {
		return fmt.Errorf("disable reference: %w", err)
	}
	return nil
}

// Close releases the lines, leaving the reference unpowered.
func (c *RealComparator) Close() error {
	var errs []error
	if c.refPin != nil {
		if err := c.refPin.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("disable reference: %w", err))
		}
		if err := c.refPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reference pin: %w", err))
		}
	}
	if c.cmpPin != nil {
		if err := c.cmpPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close comparator pin: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
