// Package acquire provides the touch acquisition sources the device polls.
// Capacitive sensing itself is out of scope: sources deliver one filtered
// delta (signal minus baseline) per completed measurement.
package acquire

import "context"

// Source is a touch acquisition subsystem.
type Source interface {
	// StartOrContinue advances the acquisition without blocking.
	StartOrContinue()

	// Complete reports whether a new measurement is ready.
	Complete() bool

	// ClearComplete acknowledges the current measurement.
	ClearComplete()

	// Delta returns the filtered delta of the last measurement.
	Delta() int16

	// Idle reports whether no measurement is in progress, so the
	// processor may sleep.
	Idle() bool
}

// Notifier is a Source whose measurements complete in the background, the
// way an acquisition peripheral raises its completion interrupt.
type Notifier interface {
	Source

	// NotifyComplete registers fn, called once per completed measurement
	// from the background context. fn must not block.
	NotifyComplete(fn func())

	// Run drives the background acquisition until ctx is done.
	Run(ctx context.Context)
}
