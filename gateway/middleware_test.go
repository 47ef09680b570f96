package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPLimiterPerClient(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))

	now = now.Add(time.Minute)
	assert.True(t, l.allow("10.0.0.1"))
}

func TestIPLimiterDropsIdleBuckets(t *testing.T) {
	l := newIPLimiter(60, 5)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }
	l.lastSweep = start

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		l.allow(ip)
	}
	assert.Len(t, l.buckets, 3)

	now = start.Add(limiterIdleTTL / 2)
	l.allow("10.0.0.3")

	now = start.Add(limiterIdleTTL)
	l.allow("10.0.0.4")
	assert.Len(t, l.buckets, 2)
	assert.Contains(t, l.buckets, "10.0.0.3")
	assert.Contains(t, l.buckets, "10.0.0.4")
}

func TestIPLimiterUnlimitedKeepsNoState(t *testing.T) {
	l := newIPLimiter(0, 0)
	for i := 0; i < 10; i++ {
		assert.True(t, l.allow("10.0.0.1"))
	}
	assert.Empty(t, l.buckets)
}
