package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(perMinute int) (*Limiter, *time.Time) {
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	now := time.Date(2024, 3, 13, 14, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(2)
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are independent")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("new window should reset the counter")
	}
	if m := rl.GetMetrics(); m.LimitedRequests != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestLimiter_SteadyTrafficStillLimited(t *testing.T) {
	rl, now := newTestLimiter(3)
	defer rl.Stop()

	allowed := 0
	for i := 0; i < 6; i++ {
		if rl.Allow("a") {
			allowed++
		}
		*now = now.Add(5 * time.Second)
	}
	if allowed != 3 {
		t.Fatalf("allowed %d requests within one minute", allowed)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	rl, now := newTestLimiter(5)
	defer rl.Stop()

	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")
	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Fatalf("removed %d", n)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("clients = %d", rl.ActiveClients())
	}
	rl.Stop()
	rl.Stop()
}

func TestMiddleware_OnlyListedMethods(t *testing.T) {
	rl, _ := newTestLimiter(1)
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil, http.MethodPost, http.MethodDelete)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/expense", nil))
		return rec.Code
	}

	if c := do(http.MethodPost); c != http.StatusNoContent {
		t.Fatalf("first POST = %d", c)
	}
	if c := do(http.MethodPost); c != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d", c)
	}
	for i := 0; i < 3; i++ {
		if c := do(http.MethodGet); c != http.StatusNoContent {
			t.Fatalf("GET should not be limited, got %d", c)
		}
	}
}
