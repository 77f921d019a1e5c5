package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// idleAfter is how long a client bucket may sit full before it is dropped.
const idleAfter = 10 * time.Minute

// ClientLimiter is an in-memory token bucket keyed by client IP.
type ClientLimiter struct {
	capacity  float64
	perSecond float64
	now       func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewClientLimiter allows burst requests at once and perMinute sustained.
func NewClientLimiter(burst, perMinute int) *ClientLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	return &ClientLimiter{
		capacity:  float64(burst),
		perSecond: float64(perMinute) / 60,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
	}
}

// GinMiddleware rejects over-limit clients with 429, a Retry-After hint and
// the API error envelope.
func (l *ClientLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if wait, ok := l.take(key); !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "Too many requests. Please slow down.",
			})
			return
		}
		c.Next()
	}
}

// take spends one token for key. When the bucket is empty it reports how
// long until the next token.
func (l *ClientLimiter) take(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, seen: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.seen).Seconds()*l.perSecond)
	b.seen = now
	if b.tokens < 1 {
		if l.perSecond <= 0 {
			return time.Minute, false
		}
		return time.Duration((1 - b.tokens) / l.perSecond * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (l *ClientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.seen) >= idleAfter {
			delete(l.buckets, key)
		}
	}
}
