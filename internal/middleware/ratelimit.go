package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/pkg/errors"
	"github.com/sonvt1710/graylog2-server/pkg/response"
)

var errTooManyRequests = errors.New("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests)

type window struct {
	count int
	ends  time.Time
}

// fixedWindow counts requests per key in fixed windows. Stale windows are swept on access.
type fixedWindow struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	now     func() time.Time
	windows map[string]*window
}

func (f *fixedWindow) hit(key string) (remaining int, reset time.Duration, allowed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for k, w := range f.windows {
		if now.After(w.ends) {
			delete(f.windows, k)
		}
	}

	w, ok := f.windows[key]
	if !ok {
		w = &window{ends: now.Add(f.period)}
		f.windows[key] = w
	}
	w.count++

	return max(0, f.limit-w.count), w.ends.Sub(now), w.count <= f.limit
}

// RateLimit limits requests per client IP and route within a fixed window. A non-positive
// limit or period disables the limiter.
func RateLimit(limit int, period time.Duration) gin.HandlerFunc {
	return rateLimit(limit, period, time.Now)
}

func rateLimit(limit int, period time.Duration, now func() time.Time) gin.HandlerFunc {
	if limit <= 0 || period <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := &fixedWindow{limit: limit, period: period, now: now, windows: map[string]*window{}}
	return func(c *gin.Context) {
		remaining, reset, allowed := limiter.hit(c.ClientIP() + "|" + c.FullPath())

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(reset.Seconds())))

		if !allowed {
			response.Error(c, errTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
