package queue

import "time"

// BackoffDelay computes the exponential retry delay for a job that has
// just failed its attemptCount-th attempt, per spec.md §4.1:
// min(base * 2^(attempt-1), max). attemptCount must be >= 1.
func BackoffDelay(attemptCount int, base, max time.Duration) time.Duration {
	if attemptCount < 1 {
		attemptCount = 1
	}
	delay := base * time.Duration(1<<uint(attemptCount-1))
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}
