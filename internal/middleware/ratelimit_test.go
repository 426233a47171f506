package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &rateLimiter{
		window: 10 * time.Second,
		last:   make(map[string]time.Time),
	}

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest("POST", "/api/v1/knowledge-bases/kb-1/search", nil)
	limiter.handle(c1)
	require.False(t, c1.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("POST", "/api/v1/knowledge-bases/kb-1/search", nil)
	limiter.handle(c2)
	require.True(t, c2.IsAborted())
}

func TestRateLimiterZeroWindowPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &rateLimiter{
		window: 0,
		last:   make(map[string]time.Time),
	}
	for i := 0; i < 3; i++ {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("POST", "/api/v1/knowledge-bases/kb-1/search", nil)
		limiter.handle(c)
		require.False(t, c.IsAborted())
	}
}
