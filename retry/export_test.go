package retry

import "time"

// SetClock overrides the policy's time source for tests.
func (p *Policy) SetClock(now func() time.Time) { p.now = now }

// SetJitter overrides the policy's jitter source for tests.
func (p *Policy) SetJitter(fn func() float64) { p.jitter = fn }
