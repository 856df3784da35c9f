package ble

import "time"

// backoffDelay returns the exponential reconnect delay for the given
// zero-based attempt count: min(2 * 2^min(attempt, 4), 30) seconds. Delays
// saturate at 30s from the fifth attempt on and reset to the attempt-0 value
// the instant a connection succeeds.
func backoffDelay(attempt int) time.Duration {
	capped := attempt
	if capped > 4 {
		capped = 4
	}
	seconds := 2 << uint(capped) // 2 * 2^capped
	if seconds > 30 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}
