package services

import (
	"math"
	"time"
)

// RetryPolicy is an explicit bounded-retry configuration for the
// reconnection loop. Delays grow exponentially from InitialDelay and
// never exceed MaxDelay.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Delay computes the wait before the given zero-based attempt
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return p.InitialDelay
	}

	multiplier := p.Multiplier
	if multiplier <= 1 {
		multiplier = 2.0
	}

	delay := float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// sleepFunc waits for d unless stop closes first; returns false when
// stopped. Injectable so reconnection tests run without real timers.
type sleepFunc func(stop <-chan struct{}, d time.Duration) bool

func defaultSleep(stop <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}
