package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiter_BurstThenRefuse(t *testing.T) {
	limiter := NewLocalLimiter(Config{Limit: 3, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are limited independently")
}

func TestLocalLimiter_ZeroConfigAllowsOne(t *testing.T) {
	limiter := NewLocalLimiter(Config{})
	ok, _ := limiter.Allow(context.Background(), "k")
	assert.True(t, ok)
}

func TestUserKeyFunc(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "192.0.2.10:1234"

	assert.Equal(t, "ip:192.0.2.10", UserKeyFunc(c))

	c.Set("user_id", "u-1")
	assert.Equal(t, "user:u-1", UserKeyFunc(c))
}
