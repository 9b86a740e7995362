package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/moodlens/backend/internal/apierror"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
)

// RateLimiter counts requests per key in fixed windows. A key's window
// starts with its first request.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*keyWindow
	rate    int
	window  time.Duration
	name    string
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type keyWindow struct {
	start time.Time
	count int
}

// NewRateLimiter allows rate requests per window for each key. name labels
// log lines. Call Stop to end the sweeper goroutine.
func NewRateLimiter(rate int, window time.Duration, name string) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*keyWindow),
		rate:    rate,
		window:  window,
		name:    name,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweep()

	logger.Default().Debug("rate limiter initialized",
		logger.String("name", name),
		logger.Int("rate", rate),
		logger.Duration("window", window),
	)
	return rl
}

// sweep drops windows that ended at least one full window ago
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		cutoff := rl.now().Add(-2 * rl.window)
		dropped := 0
		for key, w := range rl.windows {
			if w.start.Before(cutoff) {
				delete(rl.windows, key)
				dropped++
			}
		}
		remaining := len(rl.windows)
		rl.mu.Unlock()

		if dropped > 0 {
			logger.Default().Debug("rate limiter sweep",
				logger.String("name", rl.name),
				logger.Int("dropped", dropped),
				logger.Int("remaining", remaining),
			)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// isAllowed counts a request for key. It returns whether the request fits
// in the current window, the count so far and when the window resets.
func (rl *RateLimiter) isAllowed(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &keyWindow{start: now}
		rl.windows[key] = w
	}
	w.count++
	return w.count <= rl.rate, w.count, w.start.Add(rl.window)
}

// RateLimit enforces limiter per user. Requests that reach it before
// authentication fall back to the client IP.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	limit := strconv.Itoa(limiter.rate)

	return func(c *gin.Context) {
		key := c.GetString(userIDKey)
		if key == "" {
			key = c.ClientIP()
		}

		allowed, count, reset := limiter.isAllowed(key)
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			logger.FromContext(c.Request.Context()).Warn("rate limit exceeded",
				logger.String("limiter", limiter.name),
				logger.String("client_key", key),
				logger.Int("request_count", count),
				logger.Int("limit", limiter.rate),
			)
			retryAfter := int(math.Ceil(reset.Sub(limiter.now()).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			apierror.WriteProblem(c, apierror.NewRateLimitError(apierror.GetRequestID(c), retryAfter))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.rate-count))
		c.Next()
	}
}
