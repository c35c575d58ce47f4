package middleware

import (
	"log/slog"
	"sync"
	"time"

	"laundrybot/internal/logger"
	"laundrybot/internal/telegram/helpers"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// userRateLimiter keeps a token bucket per user ID.
type userRateLimiter struct {
	users map[int64]*rate.Limiter
	mu    sync.RWMutex
	r     rate.Limit
	b     int
}

func newUserRateLimiter(r rate.Limit, b int) *userRateLimiter {
	return &userRateLimiter{
		users: make(map[int64]*rate.Limiter),
		r:     r,
		b:     b,
	}
}

func (u *userRateLimiter) limiter(userID int64) *rate.Limiter {
	u.mu.RLock()
	lim, ok := u.users[userID]
	u.mu.RUnlock()
	if ok {
		return lim
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if lim, ok := u.users[userID]; ok {
		return lim
	}
	lim = rate.NewLimiter(u.r, u.b)
	u.users[userID] = lim
	return lim
}

// RateLimitMiddleware returns a middleware that throttles updates per user
// with a token bucket refilled once per configured interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	var limiters *userRateLimiter
	if opts.Interval > 0 {
		limiters = newUserRateLimiter(rate.Every(opts.Interval), burst)
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || limiters == nil {
				return next(c)
			}

			upd := c.Update()
			kind := "other"
			switch {
			case upd.Callback != nil:
				kind = "callback"
			case upd.Message != nil:
				kind = "message"
			case upd.Query != nil:
				kind = "inline_query"
			}
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			if !limiters.limiter(user.ID).Allow() {
				ctx := helpers.BuildContext(c)
				logger.Warn(ctx, "tg", "rate_limit", slog.String("kind", kind))
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
