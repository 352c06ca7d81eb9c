package relay

import (
	"math"
	"time"
)

// Default staleness policy
const (
	DefaultMinTimeout        = 1 * time.Second
	DefaultMaxTimeout        = 10 * time.Second
	DefaultTimeoutMultiplier = 3.0
)

// TimeoutPolicy turns observed frame spacing into a staleness threshold.
type TimeoutPolicy struct {
	Min        time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultTimeoutPolicy returns the 1s..10s, 3x policy.
func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Min:        DefaultMinTimeout,
		Max:        DefaultMaxTimeout,
		Multiplier: DefaultTimeoutMultiplier,
	}
}

// Timeout computes the dynamic timeout for w. With fewer than two samples
// the average is not trusted and Min is returned.
func (p TimeoutPolicy) Timeout(w *IntervalWindow) time.Duration {
	if w.Len() < 2 {
		return p.Min
	}
	t := time.Duration(float64(w.Average()) * p.Multiplier)
	if t < p.Min {
		return p.Min
	}
	if t > p.Max {
		return p.Max
	}
	return t
}

// FPS estimates the producer frame rate from the window, rounded to one
// decimal place. It is 0 until an interval exists or when frames arrive
// faster than the clock resolution.
func FPS(w *IntervalWindow) float64 {
	avg := w.Average()
	if avg <= 0 {
		return 0
	}
	fps := float64(time.Second) / float64(avg)
	return math.Round(fps*10) / 10
}
