package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestClientLimiterRefills(t *testing.T) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewClientLimiter(2, 60)
	l.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		if _, ok := l.take("ip"); !ok {
			t.Fatalf("call %d should pass", i+1)
		}
	}
	wait, ok := l.take("ip")
	if ok {
		t.Fatal("third call should be limited")
	}
	if wait <= 0 || wait > time.Second {
		t.Fatalf("wait = %s, want within one second", wait)
	}
	if _, ok := l.take("other"); !ok {
		t.Fatal("buckets are per key")
	}

	// Partial refills accumulate instead of being lost.
	clock = clock.Add(500 * time.Millisecond)
	if _, ok := l.take("ip"); ok {
		t.Fatal("half a token is not enough")
	}
	clock = clock.Add(500 * time.Millisecond)
	if _, ok := l.take("ip"); !ok {
		t.Fatal("bucket should refill after a second at 60/min")
	}
}

func TestClientLimiterDropsIdleBuckets(t *testing.T) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewClientLimiter(1, 1)
	l.now = func() time.Time { return clock }

	l.take("a")
	l.take("b")
	clock = clock.Add(idleAfter + time.Second)
	l.take("b")
	if _, ok := l.buckets["a"]; ok {
		t.Fatal("idle bucket should be evicted")
	}
	if _, ok := l.buckets["b"]; !ok {
		t.Fatal("active bucket should survive")
	}
}

func TestGinMiddlewareRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewClientLimiter(1, 1).GinMiddleware())
	r.POST("/shared/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	var last *httptest.ResponseRecorder
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/shared/login", nil))
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if got := last.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After = %q, want 60", got)
	}
}
