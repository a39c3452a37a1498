package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int64)}
}

func (f *fakeLimiter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func checkoutPolicy(ipLimit, sessionLimit int) RateLimitPolicy {
	return NewRateLimitPolicy("checkout", time.Minute, ipLimit, sessionLimit)
}

func TestRateLimitBlocksIPOverLimit(t *testing.T) {
	store := newFakeLimiter()
	mw := RateLimit(checkoutPolicy(2, 0), store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.RemoteAddr = "203.0.113.7:4411"
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.RemoteAddr = "203.0.113.7:4411"
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the ip limit, got %d", resp.Code)
	}
}

func TestRateLimitCountsSessionsIndependently(t *testing.T) {
	store := newFakeLimiter()
	mw := RateLimit(checkoutPolicy(0, 1), store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(session string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req = req.WithContext(WithSessionID(req.Context(), session))
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		return resp.Code
	}

	if code := send("sess-a"); code != http.StatusOK {
		t.Fatalf("first request for sess-a should pass, got %d", code)
	}
	if code := send("sess-a"); code != http.StatusTooManyRequests {
		t.Fatalf("second request for sess-a should be blocked, got %d", code)
	}
	if code := send("sess-b"); code != http.StatusOK {
		t.Fatalf("sess-b has its own counter, got %d", code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeLimiter()
	mw := RateLimit(NewRateLimitPolicy("checkout", 0, 0, 0), store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("disabled policy must not block, got %d", resp.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")

	if got := clientIP(req); got != "198.51.100.9" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
}
