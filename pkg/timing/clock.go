package timing

import (
	"sync/atomic"
	"time"
)

// Never is the deadline value that CheckTimeout never reports as elapsed.
const Never uint32 = ^uint32(0)

// Clock is the monotonic millisecond counter the radio core runs on.
// Now is the only value advanced outside the control loop; delays are
// synchronous stalls of the calling goroutine.
type Clock interface {
	Now() uint32
	DelayMs(ms uint32)
	DelayUs(us uint32)
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose counter starts at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func (c *SystemClock) DelayMs(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// DelayUs spins rather than sleeping; the scheduler cannot resolve the
// sub-millisecond dwell the receiver needs before a reading settles.
func (c *SystemClock) DelayUs(us uint32) {
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// ManualClock is a Clock advanced explicitly by tests. Delays advance the
// counter instead of blocking, so sequences that wait behave deterministically.
type ManualClock struct {
	now     atomic.Uint32
	micros  atomic.Uint32
	delays  atomic.Uint32
	delayed atomic.Uint32
}

func NewManualClock(start uint32) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

func (c *ManualClock) Now() uint32 { return c.now.Load() }

// Advance moves the counter forward by ms.
func (c *ManualClock) Advance(ms uint32) { c.now.Add(ms) }

// Set moves the counter to an absolute value.
func (c *ManualClock) Set(ms uint32) { c.now.Store(ms) }

func (c *ManualClock) DelayMs(ms uint32) {
	c.delays.Add(1)
	c.delayed.Add(ms)
	c.now.Add(ms)
}

func (c *ManualClock) DelayUs(us uint32) {
	c.delays.Add(1)
	total := c.micros.Add(us)
	if total >= 1000 {
		c.now.Add(total / 1000)
		c.micros.Store(total % 1000)
	}
}

// Delays returns how many delay calls were made.
func (c *ManualClock) Delays() uint32 { return c.delays.Load() }

// DelayedMs returns the total milliseconds spent in DelayMs.
func (c *ManualClock) DelayedMs() uint32 { return c.delayed.Load() }
