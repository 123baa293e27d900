package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	base := 30 * time.Second
	maxDelay := 5 * time.Minute

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 30 * time.Second},
		{2, 60 * time.Second},
		{3, 120 * time.Second},
		{4, 240 * time.Second},
		{5, maxDelay}, // 480s would exceed 300s cap
		{20, maxDelay},
	}

	for _, tc := range cases {
		got := BackoffDelay(tc.attempt, base, maxDelay)
		assert.Equalf(t, tc.want, got, "attempt=%d", tc.attempt)
	}
}

func TestBackoffDelayNeverExceedsMax(t *testing.T) {
	base := 30 * time.Second
	maxDelay := 5 * time.Minute
	for attempt := 1; attempt <= 64; attempt++ {
		got := BackoffDelay(attempt, base, maxDelay)
		assert.LessOrEqualf(t, got, maxDelay, "attempt=%d", attempt)
		assert.Greaterf(t, got, time.Duration(0), "attempt=%d", attempt)
	}
}
