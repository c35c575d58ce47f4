package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestUserRateLimiterIsolatesUsers(t *testing.T) {
	limiters := newUserRateLimiter(rate.Every(time.Hour), 1)

	assert.True(t, limiters.limiter(1).Allow())
	assert.False(t, limiters.limiter(1).Allow(), "burst of one is spent")
	assert.True(t, limiters.limiter(2).Allow(), "other users are unaffected")
}

func TestUserRateLimiterReusesBucket(t *testing.T) {
	limiters := newUserRateLimiter(rate.Every(time.Hour), 2)

	first := limiters.limiter(7)
	assert.Same(t, first, limiters.limiter(7))

	assert.True(t, first.Allow())
	assert.True(t, first.Allow())
	assert.False(t, first.Allow())
}
