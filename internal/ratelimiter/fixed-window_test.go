package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		require.True(t, ok)
	}

	ok, retryAfter := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)

	// another client has its own window
	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)
}

func TestFixedWindowLimiterWindowReset(t *testing.T) {
	rl := NewFixedWindowLimiter(1, 10*time.Millisecond)

	ok, _ := rl.Allow("user:42")
	require.True(t, ok)
	ok, _ = rl.Allow("user:42")
	require.False(t, ok)

	time.Sleep(15 * time.Millisecond)

	ok, _ = rl.Allow("user:42")
	assert.True(t, ok)
}
