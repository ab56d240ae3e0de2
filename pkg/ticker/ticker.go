package ticker

import "time"

// Ticks is a monotonic millisecond counter. It wraps at the uint32 width;
// intervals must be computed with Since, never by comparing absolute values.
type Ticks uint32

// Since returns now - then using unsigned arithmetic, so the result stays
// correct across counter wraparound.
func Since(now, then Ticks) Ticks {
	return now - then
}

// Clock provides the current tick count.
type Clock interface {
	Now() Ticks
}

// Wall is a Clock backed by the runtime monotonic clock, counting from the
// moment it was created.
type Wall struct {
	start time.Time
}

// NewWall creates a Wall clock starting at tick 0.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

// Now implements Clock.
func (w *Wall) Now() Ticks {
	return Ticks(time.Since(w.start) / time.Millisecond)
}

// Manual is a Clock advanced explicitly. Tests use it to drive components
// deterministically instead of sleeping on wall time.
type Manual struct {
	tick Ticks
}

// Now implements Clock.
func (m *Manual) Now() Ticks {
	return m.tick
}

// Set moves the clock to an absolute tick.
func (m *Manual) Set(t Ticks) {
	m.tick = t
}

// Advance moves the clock forward by d ticks.
func (m *Manual) Advance(d Ticks) {
	m.tick += d
}
