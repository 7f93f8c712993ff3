// Package firmware runs the device: the tick handler, the main cycle and
// the platform primitives they need (watchdog, sleep).
package firmware

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// PowerProfile selects how deep the processor sleeps.
type PowerProfile uint8

const (
	// ProfileIdle wakes on the tick or an acquisition interrupt.
	ProfileIdle PowerProfile = iota
	// ProfilePowerDown wakes on the tick only.
	ProfilePowerDown
)

func (p PowerProfile) String() string {
	if p == ProfilePowerDown {
		return "POWER_DOWN"
	}
	return "IDLE"
}

// Sleeper suspends the main cycle until the next event.
type Sleeper interface {
	SleepUntilNextEvent(p PowerProfile)
}

// Watchdog is serviced once per main-cycle iteration.
type Watchdog interface {
	Kick() error
}

// EventSleeper is the host rendition of sleep-until-interrupt. Tick and
// acquisition callbacks call Wake; the daemon's context ends all sleeps.
type EventSleeper struct {
	tick    chan struct{}
	acquire chan struct{}
	done    <-chan struct{}
}

// NewEventSleeper creates a sleeper bound to ctx.
func NewEventSleeper(ctx context.Context) *EventSleeper {
	return &EventSleeper{
		tick:    make(chan struct{}, 1),
		acquire: make(chan struct{}, 1),
		done:    ctx.Done(),
	}
}

// Wake ends the current or next sleep from the tick context.
func (s *EventSleeper) Wake() {
	select {
	case s.tick <- struct{}{}:
	default:
	}
}

// WakeAcquisition ends an idle sleep from the acquisition context.
// It does not end a power-down sleep.
func (s *EventSleeper) WakeAcquisition() {
	select {
	case s.acquire <- struct{}{}:
	default:
	}
}

// SleepUntilNextEvent blocks until a wake source allowed by p fires.
func (s *EventSleeper) SleepUntilNextEvent(p PowerProfile) {
	if p == ProfilePowerDown {
		select {
		case <-s.tick:
		case <-s.done:
		}
		return
	}
	select {
	case <-s.tick:
	case <-s.acquire:
	case <-s.done:
	}
}

// CountingWatchdog counts kicks. It serves as the watchdog on hosts
// without a hardware timer and in tests.
type CountingWatchdog struct {
	kicks atomic.Uint64
}

// Kick records a kick.
func (w *CountingWatchdog) Kick() error {
	w.kicks.Add(1)
	return nil
}

// Kicks returns the number of kicks so far.
func (w *CountingWatchdog) Kicks() uint64 {
	return w.kicks.Load()
}

// FileWatchdog services a Linux watchdog device such as /dev/watchdog.
// Opening the device arms the hardware timer.
type FileWatchdog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenFileWatchdog opens the watchdog device at path.
func OpenFileWatchdog(path string) (*FileWatchdog, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog: %w", err)
	}
	return &FileWatchdog{f: f}, nil
}

// Kick writes a keepalive byte.
func (w *FileWatchdog) Kick() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write([]byte{0}); err != nil {
		return fmt.Errorf("kick watchdog: %w", err)
	}
	return nil
}

// Close disarms the watchdog with the magic close character and closes
// the device.
func (w *FileWatchdog) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write([]byte("V")); err != nil {
		w.f.Close()
		return fmt.Errorf("disarm watchdog: %w", err)
	}
	return w.f.Close()
}
