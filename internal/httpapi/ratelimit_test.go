package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)

	assert.True(t, rl.Allow("10.0.0.1:5000"))
	assert.True(t, rl.Allow("10.0.0.1:5001"), "same host, other port shares the bucket")
	assert.False(t, rl.Allow("10.0.0.1:5002"))
	assert.True(t, rl.Allow("10.0.0.2:5000"), "other hosts have their own bucket")
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(0.001, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1:1"))
	assert.False(t, rl.Allow("10.0.0.1:1"))

	now = now.Add(visitorTTL + time.Second)
	rl.Allow("10.0.0.9:1")
	rl.mu.Lock()
	_, kept := rl.visitors["10.0.0.1"]
	rl.mu.Unlock()
	assert.False(t, kept)
	assert.True(t, rl.Allow("10.0.0.1:1"))
}

func TestClientKey(t *testing.T) {
	assert.Equal(t, "127.0.0.1", clientKey("127.0.0.1:8080"))
	assert.Equal(t, "::1", clientKey("[::1]:8080"))
	assert.Equal(t, "pipe", clientKey("pipe"))
}
