//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealActuator is not available on non-Linux platforms.
type RealActuator struct {
	*Actuator
}

// NewRealActuator returns an error on non-Linux platforms.
func NewRealActuator(chip string, pinOpen, pinClose int, width time.Duration) (*RealActuator, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealActuator) Close() error {
	return nil
}

// RealComparator is not available on non-Linux platforms.
type RealComparator struct{}

// NewRealComparator returns an error on non-Linux platforms.
func NewRealComparator(chip string, pinRef, pinCmp int, tripHigh bool) (*RealComparator, error) {
	return nil, errUnsupported
}

// EnableReference is not implemented on non-Linux platforms.
func (c *RealComparator) EnableReference() error { return errUnsupported }

// Tripped is not implemented on non-Linux platforms.
func (c *RealComparator) Tripped() (bool, error) { return false, errUnsupported }

// DisableReference is not implemented on non-Linux platforms.
func (c *RealComparator) DisableReference() error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (c *RealComparator) Close() error {
	return nil
}
