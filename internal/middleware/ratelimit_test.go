package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	handler := rl.Handler(okHandler())

	for i := 0; i < 5; i++ {
		rec := doRequest(handler, "10.0.0.1:1234")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	handler := rl.Handler(okHandler())

	doRequest(handler, "10.0.0.1:1234")
	doRequest(handler, "10.0.0.1:1234")
	rec := doRequest(handler, "10.0.0.1:1234")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on rejection")
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected json error body, got %s", rec.Header().Get("Content-Type"))
	}
}

func TestRateLimiterSetsHeaders(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	handler := rl.Handler(okHandler())

	rec := doRequest(handler, "10.0.0.1:1234")
	if rec.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Fatalf("expected 4 remaining, got %s", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected X-RateLimit-Reset header")
	}
}

func TestRateLimiterIsPerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.Handler(okHandler())

	if rec := doRequest(handler, "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first IP: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(handler, "10.0.0.1:5678"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same IP new port: expected 429, got %d", rec.Code)
	}
	if rec := doRequest(handler, "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Fatalf("second IP: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }
	handler := rl.Handler(okHandler())

	doRequest(handler, "10.0.0.1:1234")
	if rec := doRequest(handler, "10.0.0.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected empty bucket to reject, got %d", rec.Code)
	}

	now = now.Add(2 * time.Second)

	if rec := doRequest(handler, "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("expected refill to allow the request, got %d", rec.Code)
	}
}

func TestRateLimiterCleanupEvictsStaleBuckets(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	handler := rl.Handler(okHandler())

	doRequest(handler, "10.0.0.1:1234")
	doRequest(handler, "10.0.0.2:1234")
	if rl.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", rl.Len())
	}

	rl.cleanup(0)
	if rl.Len() != 0 {
		t.Fatalf("expected all buckets evicted, got %d", rl.Len())
	}
}

func TestRealIPStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.7:42831"
	if got := realIP(req); got != "192.168.1.7" {
		t.Fatalf("realIP = %q, want 192.168.1.7", got)
	}

	// Spoofable proxy headers must not be honored.
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	if got := realIP(req); got != "192.168.1.7" {
		t.Fatalf("realIP honored a proxy header: %q", got)
	}
}
