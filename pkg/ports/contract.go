package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLimiterContract verifies that a Limiter configured with limit hits per
// window adheres to the interface contract. The window must be long enough
// not to elapse while the contract runs.
func RunLimiterContract(t *testing.T, limiter Limiter, limit int) {
	ctx := context.Background()
	key := fmt.Sprintf("contract-%d", time.Now().UnixNano())

	t.Run("Allows up to the limit", func(t *testing.T) {
		for i := 1; i <= limit; i++ {
			d, err := limiter.Allow(ctx, key)
			require.NoError(t, err)
			assert.True(t, d.Allowed, "hit %d should be allowed", i)
			assert.Equal(t, limit, d.Limit)
			assert.Equal(t, limit-i, d.Remaining)
		}
	})

	t.Run("Denies past the limit", func(t *testing.T) {
		d, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Greater(t, d.RetryAfter, time.Duration(0))
	})

	t.Run("Keys are independent", func(t *testing.T) {
		d, err := limiter.Allow(ctx, key+"-other")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}
