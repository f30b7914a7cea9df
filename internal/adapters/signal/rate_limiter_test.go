package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnRateLimiter(t *testing.T) {
	rl := NewConnRateLimiter(0.001, 2)

	require.True(t, rl.Allow("a"))
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	// Buckets are per connection.
	require.True(t, rl.Allow("b"))
	require.Equal(t, 2, rl.Tracked())

	rl.Forget("a")
	require.Equal(t, 1, rl.Tracked())
	require.True(t, rl.Allow("a"))
}

func TestConnRateLimiter_Disabled(t *testing.T) {
	rl := NewConnRateLimiter(0, 0)
	for range 1000 {
		require.True(t, rl.Allow("a"))
	}
	require.Zero(t, rl.Tracked())

	var nilLimiter *ConnRateLimiter
	require.True(t, nilLimiter.Allow("a"))
	nilLimiter.Forget("a")
}
