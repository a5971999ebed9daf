package domain

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffPolicy computes retry delays that double from Initial up to Max.
type BackoffPolicy struct {
	Initial time.Duration
	Max     time.Duration
}

// NewBackoffPolicy returns a policy with Max raised to Initial when it is smaller.
func NewBackoffPolicy(initial, max time.Duration) BackoffPolicy {
	if max < initial {
		max = initial
	}
	return BackoffPolicy{Initial: initial, Max: max}
}

// Delay returns min(Initial * 2^(attempts-1), Max). Attempts below 1 yield Initial.
func (p BackoffPolicy) Delay(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.Max
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempts && delay < p.Max; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

// NextAttemptAt returns the time the next delivery is due after attempts failures.
func (p BackoffPolicy) NextAttemptAt(now time.Time, attempts int) time.Time {
	return now.Add(p.Delay(attempts))
}
