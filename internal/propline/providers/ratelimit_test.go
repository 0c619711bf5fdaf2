package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_ConfiguredHostThrottles(t *testing.T) {
	l := NewRateLimiter()
	l.Configure("api.example.com", 1, 1)

	assert.True(t, l.Allow("api.example.com"), "first token should be available immediately")
	assert.False(t, l.Allow("api.example.com"), "burst of 1 exhausts after one call")
}

func TestRateLimiter_UnconfiguredHostIsUnthrottled(t *testing.T) {
	l := NewRateLimiter()
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("unconfigured.example.com"))
	}
}

func TestRateLimiter_WaitRespectsContextCancellation(t *testing.T) {
	l := NewRateLimiter()
	l.Configure("slow.example.com", 0.001, 1)
	l.Allow("slow.example.com") // exhaust the single burst token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "slow.example.com")
	assert.Error(t, err)
}
