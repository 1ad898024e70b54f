package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func rateLimitedRequest(mw echo.MiddlewareFunc, ip string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })(c)
	return rec, err
}

func TestRateLimit_WithinBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})
	for i := 0; i < 3; i++ {
		if _, err := rateLimitedRequest(mw, "10.0.0.1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.5, BurstSize: 1})
	if _, err := rateLimitedRequest(mw, "10.0.0.2"); err != nil {
		t.Fatalf("first request: %v", err)
	}

	rec, err := rateLimitedRequest(mw, "10.0.0.2")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Error("expected X-RateLimit-Remaining 0")
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.1, BurstSize: 1})
	if _, err := rateLimitedRequest(mw, "10.0.0.3"); err != nil {
		t.Fatal(err)
	}
	if _, err := rateLimitedRequest(mw, "10.0.0.4"); err != nil {
		t.Errorf("other client should not be throttled: %v", err)
	}
}

func TestLimiterStore_EvictsIdleClients(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	store.lastSweep = clock

	store.get("10.0.0.5")
	store.get("10.0.0.6")
	if n := store.size(); n != 2 {
		t.Fatalf("expected 2 buckets, got %d", n)
	}

	clock = clock.Add(30 * time.Second)
	store.get("10.0.0.6")

	clock = clock.Add(40 * time.Second)
	store.get("10.0.0.7")
	if n := store.size(); n != 2 {
		t.Fatalf("expected idle bucket to be evicted, got %d buckets", n)
	}
	if _, ok := store.limiters["10.0.0.5"]; ok {
		t.Error("expected 10.0.0.5 to be evicted")
	}
	if _, ok := store.limiters["10.0.0.6"]; !ok {
		t.Error("expected recently seen 10.0.0.6 to survive")
	}
}
