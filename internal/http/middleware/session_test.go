package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func sessionRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionID())
	r.POST("/chatbot", func(c *gin.Context) {
		*seen, _ = GetSessionID(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestSessionID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	r := sessionRouter(&seen)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chatbot", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a UUID", seen)
	}
	if w.Header().Get(HeaderSessionID) != seen {
		t.Fatalf("session id not echoed")
	}
}

func TestSessionID_PropagatesAndReplacesMalformed(t *testing.T) {
	var seen string
	r := sessionRouter(&seen)

	req := httptest.NewRequest(http.MethodPost, "/chatbot", nil)
	req.Header.Set(HeaderSessionID, "web-123:abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen != "web-123:abc" || w.Code != http.StatusOK {
		t.Fatalf("seen=%q code=%d", seen, w.Code)
	}

	for _, bad := range []string{"x", "has space", strings.Repeat("a", 101), "semi;colon"} {
		req := httptest.NewRequest(http.MethodPost, "/chatbot", nil)
		req.Header.Set(HeaderSessionID, bad)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%q: code=%d body=%s", bad, w.Code, w.Body.String())
		}
		if _, err := uuid.Parse(seen); err != nil || w.Header().Get(HeaderSessionID) != seen {
			t.Fatalf("%q: replacement id %q", bad, seen)
		}
	}
}

func TestGetSessionID_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := GetSessionID(c); ok {
		t.Fatalf("expected no session id")
	}
}
