package render

import "time"

// Clock paces a render loop to a target frame rate.
type Clock interface {
	// Tick blocks until at least 1/fps has passed since the previous tick
	// and returns the time elapsed since that tick. fps <= 0 never blocks.
	Tick(fps int) time.Duration
}

// FrameClock is the wall-clock Clock.
type FrameClock struct {
	last  time.Time
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClock returns a FrameClock backed by time.Now and time.Sleep.
func NewClock() *FrameClock {
	return &FrameClock{now: time.Now, sleep: time.Sleep}
}

func (c *FrameClock) Tick(fps int) time.Duration {
	now := c.now()
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	if fps > 0 {
		frame := time.Second / time.Duration(fps)
		if wait := frame - now.Sub(c.last); wait > 0 {
			c.sleep(wait)
			now = c.now()
		}
	}
	elapsed := now.Sub(c.last)
	c.last = now
	return elapsed
}
