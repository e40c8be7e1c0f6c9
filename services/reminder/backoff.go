// File: services/reminder/backoff.go
package reminder

import "time"

// retryLadder spaces out delivery retries. Attempt n waits ladder[n-1];
// attempts beyond the ladder reuse the last step.
var retryLadder = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
}

// RetryDelay returns the wait before the next attempt, given how many
// attempts have already run.
func RetryDelay(attempts int) time.Duration {
	if attempts <= 0 {
		return retryLadder[0]
	}
	if attempts > len(retryLadder) {
		return retryLadder[len(retryLadder)-1]
	}
	return retryLadder[attempts-1]
}
