package chain

import (
	"math"
	"math/rand"
	"time"
)

// Policy defines the per-provider retry budget and backoff strategy.
type Policy struct {
	// MaxRetriesPerProvider is the attempt budget for each candidate,
	// counting the first attempt.
	MaxRetriesPerProvider int

	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64 // 0.0-1.0
}

// DefaultPolicy returns the stock retry policy: three attempts per
// provider with exponential backoff from one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetriesPerProvider: 3,
		BaseDelay:             1 * time.Second,
		MaxDelay:              30 * time.Second,
		JitterFactor:          0.1,
	}
}

// Delay calculates the backoff before retry number attempt (1-based):
// BaseDelay doubling each time, capped at MaxDelay, with jitter applied.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := p.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.JitterFactor > 0 {
		jitter := float64(delay) * p.JitterFactor * (rand.Float64()*2 - 1) // -jitter to +jitter
		delay = time.Duration(float64(delay) + jitter)
		if delay < 0 {
			delay = 0
		}
	}

	return delay
}

// DelayWithHint is Delay with a floor: a rate-limited backend's
// Retry-After hint is never undercut, jitter included.
func (p Policy) DelayWithHint(attempt int, hint time.Duration) time.Duration {
	delay := p.Delay(attempt)
	if hint > delay {
		return hint
	}
	return delay
}

// normalized returns the policy with unset fields replaced by defaults.
func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.MaxRetriesPerProvider < 1 {
		p.MaxRetriesPerProvider = def.MaxRetriesPerProvider
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.JitterFactor < 0 || p.JitterFactor > 1 {
		p.JitterFactor = def.JitterFactor
	}
	return p
}
