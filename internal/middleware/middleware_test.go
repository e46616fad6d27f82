package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_PerIPBudget(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, l.Allow("2.2.2.2"), "other clients have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"), "one token refilled")
}

func TestIPRateLimiter_Prune(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("1.1.1.1")
	now = now.Add(5 * time.Minute)
	l.Allow("2.2.2.2")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, l.Prune())
	assert.Len(t, l.limiters, 1)
}
