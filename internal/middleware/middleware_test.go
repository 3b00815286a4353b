// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestContextSetsTraceID(t *testing.T) {
	router := gin.New()
	router.Use(RequestContext())

	var fromGin, fromCtx string
	router.GET("/x", func(c *gin.Context) {
		fromGin = c.GetString("trace_id")
		fromCtx, _ = c.Request.Context().Value(TraceIDKey).(string)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if len(fromGin) != 8 {
		t.Fatalf("expected 8-char trace id, got %q", fromGin)
	}
	if fromCtx != fromGin {
		t.Errorf("context trace id %q != gin trace id %q", fromCtx, fromGin)
	}
	if w.Header().Get(TraceHeader) != fromGin {
		t.Errorf("trace header not set")
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	router := gin.New()
	router.Use(RequestContext(), Recovery("9.9.9"))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "internal error") || !strings.Contains(body, "9.9.9") {
		t.Errorf("unexpected body %s", body)
	}
	if strings.Contains(body, "kaboom") {
		t.Error("panic value leaked to client")
	}
}

func TestMaxBodySize(t *testing.T) {
	router := gin.New()
	router.Use(MaxBodySize(8))
	router.POST("/x", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("short")))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for small body, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("this body is too long")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for large body, got %d", w.Code)
	}
}

func TestRateLimiterBurstThenDeny(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newLimiter(60, 3, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if r := l.CheckAndRecord("10.0.0.1"); !r.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	r := l.CheckAndRecord("10.0.0.1")
	if r.Allowed || r.Reason != "rate_limit" {
		t.Fatalf("expected rate_limit denial, got %+v", r)
	}
	if r.WaitSeconds != 1 {
		t.Errorf("expected 1s wait at 60/min, got %d", r.WaitSeconds)
	}

	if r := l.CheckAndRecord("10.0.0.2"); !r.Allowed {
		t.Error("other clients should have their own bucket")
	}

	now = now.Add(time.Second)
	if r := l.CheckAndRecord("10.0.0.1"); !r.Allowed {
		t.Error("bucket should refill after a second")
	}
}

func TestRateLimiterPrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newLimiter(60, 1, func() time.Time { return now })
	l.CheckAndRecord("10.0.0.1")

	now = now.Add(idleClientTTL + time.Minute)
	l.prune()

	l.mu.Lock()
	n := len(l.clients)
	l.mu.Unlock()
	if n != 0 {
		t.Errorf("expected idle client pruned, %d remain", n)
	}
}

type denyAll struct{}

func (denyAll) CheckAndRecord(string) RateLimitResult {
	return RateLimitResult{Allowed: false, Reason: "rate_limit", WaitSeconds: 7}
}

func TestClassifyRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(ClassifyRateLimit(denyAll{}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET should pass through, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "7" {
		t.Errorf("expected Retry-After 7, got %q", w.Header().Get("Retry-After"))
	}
}
