package acquire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ReplaySource replays recorded deltas, one per period.
// The recording is a CSV-like text file: the first field of each line is
// the delta, blank lines and lines starting with '#' are skipped.
//
// Without Run the source is polled: StartOrContinue completes a sample once
// the period has elapsed on the injected clock. With Run, samples complete
// in the background and the NotifyComplete callback is called for each.
type ReplaySource struct {
	samples []int16
	period  time.Duration
	now     func() time.Time
	loop    bool

	mu         sync.Mutex
	index      int
	last       time.Time
	started    bool
	running    bool
	delta      int16
	complete   bool
	onComplete func()
}

// ParseRecording reads deltas from r.
func ParseRecording(r io.Reader) ([]int16, error) {
	var samples []int16
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		field := strings.TrimSpace(strings.SplitN(text, ",", 2)[0])
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, fmt.Errorf("line %d: delta %d out of range", line, v)
		}
		samples = append(samples, int16(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("recording has no samples")
	}
	return samples, nil
}

// OpenReplay loads a recording from path.
func OpenReplay(path string, period time.Duration, loop bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	samples, err := ParseRecording(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewReplaySource(samples, period, loop, time.Now), nil
}

// NewReplaySource creates a source over samples. When loop is false the
// last sample repeats after the recording ends.
func NewReplaySource(samples []int16, period time.Duration, loop bool, now func() time.Time) *ReplaySource {
	return &ReplaySource{
		samples: samples,
		period:  period,
		now:     now,
		loop:    loop,
	}
}

// NotifyComplete registers fn to be called from Run's goroutine whenever a
// sample completes.
func (r *ReplaySource) NotifyComplete(fn func()) {
	r.mu.Lock()
	r.onComplete = fn
	r.mu.Unlock()
}

// Run completes one sample per period until ctx is done. A sample that
// has not been acknowledged when the next is due is held, not overwritten.
func (r *ReplaySource) Run(ctx context.Context) {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	t := time.NewTicker(r.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.mu.Lock()
			done := r.advance()
			fn := r.onComplete
			r.mu.Unlock()
			if done && fn != nil {
				fn()
			}
		}
	}
}

// StartOrContinue completes a measurement once per period. While Run is
// active it does nothing.
func (r *ReplaySource) StartOrContinue() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	if r.started && r.now().Sub(r.last) < r.period {
		return
	}
	if r.advance() {
		r.started = true
		r.last = r.now()
	}
}

// advance loads the next sample. Caller must hold mu.
func (r *ReplaySource) advance() bool {
	if r.complete || len(r.samples) == 0 {
		return false
	}
	r.delta = r.samples[r.index]
	r.complete = true
	switch {
	case r.index < len(r.samples)-1:
		r.index++
	case r.loop:
		r.index = 0
	}
	return true
}

// Complete reports whether a measurement is pending.
func (r *ReplaySource) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}

// ClearComplete acknowledges the measurement.
func (r *ReplaySource) ClearComplete() {
	r.mu.Lock()
	r.complete = false
	r.mu.Unlock()
}

// Delta returns the last replayed delta.
func (r *ReplaySource) Delta() int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delta
}

// Idle is always true; replay has no conversion in flight.
func (r *ReplaySource) Idle() bool { return true }
