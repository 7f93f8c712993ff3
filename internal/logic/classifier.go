package logic

// Classifier turns consecutive filtered deltas into edges.
type Classifier struct {
	threshold *Threshold
	smoothing Smoothing

	previous int

	// weak-band accumulation, only used when len(window) > 1
	window []int
	next   int
}

// NewClassifier creates a classifier with its own threshold controller.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{
		threshold: NewThreshold(cfg),
		smoothing: cfg.Smoothing,
	}
	if cfg.Window > 1 {
		c.window = make([]int, cfg.Window)
	}
	return c
}

// Threshold returns the threshold controller the classifier feeds.
func (c *Classifier) Threshold() *Threshold {
	return c.threshold
}

// Previous returns the running filtered value.
func (c *Classifier) Previous() int {
	return c.previous
}

// Classify consumes one delta and returns the edge it represents.
func (c *Classifier) Classify(sample int16) Edge {
	cur := int(sample)
	d := cur - c.previous
	mag := abs(d)
	edge := EdgeNone

	switch {
	case mag >= c.threshold.Strong():
		edge = edgeOf(d)
		c.previous = cur
		c.clearWindow()
		c.threshold.observeStrong(mag)

	case mag >= c.threshold.Tolerance():
		if c.smoothing == SmoothingTiered {
			c.previous = (c.previous*5 + cur*5) / 10
		} else {
			c.previous = cur
		}
		// Compare against the threshold in force for this sample.
		strong := c.threshold.Strong()
		c.threshold.observeNoise()
		if c.window != nil {
			sum := c.push(d)
			if abs(sum) >= strong {
				edge = edgeOf(sum)
				c.clearWindow()
				c.threshold.observeStrong(abs(sum))
			}
		}

	default:
		if c.smoothing == SmoothingTiered {
			c.previous = (c.previous*9 + cur) / 10
		} else {
			c.previous = cur
		}
		c.threshold.observeQuiet()
		if c.window != nil {
			c.push(0)
		}
	}

	return edge
}

// push stores d in the window and returns the window sum.
func (c *Classifier) push(d int) int {
	c.window[c.next] = d
	c.next = (c.next + 1) % len(c.window)
	sum := 0
	for _, v := range c.window {
		sum += v
	}
	return sum
}

func (c *Classifier) clearWindow() {
	for i := range c.window {
		c.window[i] = 0
	}
	c.next = 0
}

func edgeOf(d int) Edge {
	if d > 0 {
		return EdgeRising
	}
	return EdgeFalling
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
