package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffPolicy_Delay(t *testing.T) {
	policy := NewBackoffPolicy(time.Second, 30*time.Second)

	tests := []struct {
		attempts int
		expected time.Duration
	}{
		{attempts: 0, expected: time.Second},
		{attempts: 1, expected: time.Second},
		{attempts: 2, expected: 2 * time.Second},
		{attempts: 3, expected: 4 * time.Second},
		{attempts: 4, expected: 8 * time.Second},
		{attempts: 5, expected: 16 * time.Second},
		{attempts: 6, expected: 30 * time.Second},
		{attempts: 50, expected: 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, policy.Delay(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestBackoffPolicy_MonotonicAndCapped(t *testing.T) {
	policy := NewBackoffPolicy(250*time.Millisecond, 5*time.Second)

	previous := time.Duration(0)
	for attempts := 1; attempts <= 20; attempts++ {
		delay := policy.Delay(attempts)
		assert.GreaterOrEqual(t, delay, previous)
		assert.GreaterOrEqual(t, delay, policy.Initial)
		assert.LessOrEqual(t, delay, policy.Max)
		previous = delay
	}
	assert.Equal(t, 5*time.Second, previous)
}

func TestNewBackoffPolicy_MaxBelowInitial(t *testing.T) {
	policy := NewBackoffPolicy(10*time.Second, time.Second)

	assert.Equal(t, 10*time.Second, policy.Max)
	assert.Equal(t, 10*time.Second, policy.Delay(3))
}

func TestBackoffPolicy_NextAttemptAt(t *testing.T) {
	policy := NewBackoffPolicy(time.Second, 30*time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(4*time.Second), policy.NextAttemptAt(now, 3))
}

func TestOutboxEvent_IsDispatchable(t *testing.T) {
	now := time.Now()

	assert.True(t, (&OutboxEvent{Status: OutboxEventStatusPending, NextAttemptAt: now}).IsDispatchable(now))
	assert.False(t, (&OutboxEvent{Status: OutboxEventStatusPending, NextAttemptAt: now.Add(time.Second)}).IsDispatchable(now))
	assert.False(t, (&OutboxEvent{Status: OutboxEventStatusSent, NextAttemptAt: now}).IsDispatchable(now))
	assert.False(t, (&OutboxEvent{Status: OutboxEventStatusFailed, NextAttemptAt: now}).IsDispatchable(now))
}
