package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyBySessionOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if key := KeyBySessionOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("key = %q; want ip key", key)
	}
	c.Request.Header.Set(HeaderSessionID, "bad id!")
	if key := KeyBySessionOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("malformed header used: %q", key)
	}
	c.Request.Header.Set(HeaderSessionID, "hdr-1")
	if key := KeyBySessionOrIP()(c); key != "session:hdr-1" {
		t.Fatalf("key = %q; want header session key", key)
	}
	c.Set(ctxKeySessionID, "s-1")
	if key := KeyBySessionOrIP()(c); key != "session:s-1" {
		t.Fatalf("key = %q; want session key", key)
	}
}

func TestRateLimiter_BucketReuseAndGC(t *testing.T) {
	rl := NewRateLimiter(2, 0, nil)
	if rl.burst != 1 {
		t.Fatalf("burst = %d; want coerced to 1", rl.burst)
	}
	lim := rl.limiter("k1")
	if rl.limiter("k1") != lim {
		t.Fatalf("expected the same bucket for the same key")
	}

	rl.ttl = time.Nanosecond
	rl.mu.Lock()
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.lookups = rl.gcEvery - 1
	rl.mu.Unlock()

	_ = rl.limiter("new")
	rl.mu.Lock()
	_, hasOld := rl.visitors["old"]
	_, hasNew := rl.visitors["new"]
	rl.mu.Unlock()
	if hasOld || !hasNew {
		t.Fatalf("hasOld=%v hasNew=%v", hasOld, hasNew)
	}
}

func TestRateLimiter_PerSessionBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1, KeyBySessionOrIP())

	r := gin.New()
	r.Use(SessionID(), rl.Handler())
	r.POST("/chatbot", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(sid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chatbot", nil)
		req.Header.Set(HeaderSessionID, sid)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := send("alpha"); w.Code != http.StatusOK {
		t.Fatalf("first alpha = %d", w.Code)
	}
	w := send("alpha")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second alpha = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "too_many_requests" {
		t.Fatalf("body = %s", w.Body.String())
	}
	if w := send("bravo"); w.Code != http.StatusOK {
		t.Fatalf("other session should have its own bucket, got %d", w.Code)
	}
	if rl.Len() != 2 {
		t.Fatalf("Len = %d; want 2", rl.Len())
	}
}
