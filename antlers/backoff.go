package antlers

import "time"

// Backoff exponential delay between reconnect attempts
type Backoff struct {
	initial time.Duration
	delay   float64
	wait    time.Duration
	max     time.Duration
}

// NewBackoff start at `initial`, multiply by `delay` on every failure, never beyond `max`
func NewBackoff(initial time.Duration, delay float64, max time.Duration) *Backoff {
	return &Backoff{
		initial: initial,
		wait:    initial,
		delay:   delay,
		max:     max,
	}
}

// Fail mark attempt as failed, increases backoff timer
func (backoff *Backoff) Fail() time.Duration {
	wait := backoff.wait
	backoff.wait = time.Duration(float64(backoff.wait) * backoff.delay)
	if backoff.wait > backoff.max {
		backoff.wait = backoff.max
	}
	return wait
}

// Success mark attemp as successfull
func (backoff *Backoff) Success() {
	backoff.wait = backoff.initial
}
