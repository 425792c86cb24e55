package engine

// deltaClock converts the backend's raw monotonic timestamps into
// inter-message delta times in seconds. The previous stamp advances on every
// captured event, whether or not the event is delivered downstream, so the
// delta stream reflects arrival times and not delivery outcomes.
type deltaClock struct {
	scale  float64 // Seconds per raw timestamp unit; 0 means the backend is unstamped.
	last   uint64
	primed bool
}

func newDeltaClock(scale float64) deltaClock {
	return deltaClock{scale: scale}
}

// Delta returns the elapsed seconds since the previous event and records now
// as the new reference. The first event after Reset always yields 0.0. A
// timestamp that runs backwards (clock wrap) is absorbed as 0.0, never
// surfaced as a negative delta.
func (c *deltaClock) Delta(now uint64) float64 {
	if c.scale == 0 {
		return 0.0
	}
	if !c.primed {
		c.primed = true
		c.last = now
		return 0.0
	}
	prev := c.last
	c.last = now
	if now < prev {
		return 0.0
	}
	return float64(now-prev) * c.scale
}

// Reset restores the first-event state, so the next delta is 0.0 again.
func (c *deltaClock) Reset() {
	c.primed = false
	c.last = 0
}
