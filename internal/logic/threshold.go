package logic

// Threshold owns the strong-edge threshold and the weak band below it.
// The classifier reports which band every derivative fell into and the
// threshold retunes itself according to its mode.
type Threshold struct {
	mode     ThresholdMode
	strong   int
	weak     int
	clampMin int
	clampMax int

	quiet       int
	quietStreak int

	// tracking mode
	signal    int
	collected [2]int
	next      int
}

// NewThreshold creates a threshold controller from the classifier config.
func NewThreshold(cfg ClassifierConfig) *Threshold {
	t := &Threshold{
		mode:        cfg.Mode,
		clampMin:    cfg.ClampMin,
		clampMax:    cfg.ClampMax,
		quietStreak: cfg.QuietStreak,
		signal:      cfg.TouchSignal,
	}
	switch cfg.Mode {
	case ThresholdFixed:
		t.strong = cfg.Strong
		t.weak = cfg.Weak
	case ThresholdTracking:
		t.collected = [2]int{cfg.TouchSignal, cfg.TouchSignal}
		t.retrack()
	default:
		t.set(cfg.Strong)
	}
	return t
}

// Strong returns the strong-edge threshold.
func (t *Threshold) Strong() int { return t.strong }

// Tolerance returns the lower bound of the weak (noise) band.
func (t *Threshold) Tolerance() int { return t.weak }

// State returns a copy of the threshold state.
func (t *Threshold) State() ThresholdState {
	return ThresholdState{
		Strong:      t.strong,
		Tolerance:   t.weak,
		QuietStreak: t.quiet,
		ClampMin:    t.clampMin,
		ClampMax:    t.clampMax,
	}
}

// observeStrong records a strong edge of the given magnitude.
// Strong edges never move an adaptive threshold.
func (t *Threshold) observeStrong(magnitude int) {
	if t.mode != ThresholdTracking {
		return
	}
	t.collected[t.next] = magnitude
	t.next = (t.next + 1) % len(t.collected)
}

// observeNoise records a derivative inside the weak band.
func (t *Threshold) observeNoise() {
	if t.mode != ThresholdAdaptive {
		return
	}
	t.quiet = 0
	t.set(t.strong + 1)
}

// observeQuiet records a derivative below the weak band.
func (t *Threshold) observeQuiet() {
	if t.mode != ThresholdAdaptive {
		return
	}
	t.quiet++
	if t.quiet >= t.quietStreak {
		t.quiet = 0
		t.set(t.strong - 1)
	}
}

// PressCompleted folds the latest strong-edge magnitudes into the
// tracked touch signal. Only tracking mode reacts.
func (t *Threshold) PressCompleted() {
	if t.mode != ThresholdTracking {
		return
	}
	avg := (t.collected[0] + t.collected[1]) / 2
	t.signal = (t.signal*9 + avg) / 10
	t.retrack()
}

func (t *Threshold) retrack() {
	t.strong = clamp(t.signal*7/10, t.clampMin, t.clampMax)
	t.weak = t.signal * 4 / 10
	if t.weak > t.strong {
		t.weak = t.strong
	}
}

func (t *Threshold) set(strong int) {
	t.strong = clamp(strong, t.clampMin, t.clampMax)
	t.weak = t.strong / 2
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
