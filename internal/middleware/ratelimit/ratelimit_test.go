package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMinute int, methods ...string) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Methods: methods})
	rl.now = clock.Now
	return rl, clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("owner-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("owner-1") {
		t.Fatal("fourth request in the window should be rejected")
	}
	if !rl.Allow("owner-2") {
		t.Fatal("other clients have their own window")
	}
	if got := testutil.ToFloat64(rl.rejected); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}

	clock.Advance(59 * time.Second)
	if rl.Allow("owner-1") {
		t.Error("window should not reset before a minute")
	}
	clock.Advance(time.Second)
	if !rl.Allow("owner-1") {
		t.Error("window should reset after a minute")
	}
}

func TestLimiter_RetryAfter(t *testing.T) {
	rl, clock := newTestLimiter(1)
	rl.Allow("k")
	clock.Advance(20500 * time.Millisecond)

	if got := rl.RetryAfter("k"); got != 40 {
		t.Errorf("RetryAfter = %d, want 40", got)
	}
	if got := rl.RetryAfter("unknown"); got != 0 {
		t.Errorf("RetryAfter(unknown) = %d, want 0", got)
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(10)
	rl.Allow("old")
	clock.Advance(8 * time.Minute)
	rl.Allow("recent")
	clock.Advance(3 * time.Minute)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
	if got := testutil.ToFloat64(rl.tracked); got != 1 {
		t.Errorf("tracked gauge = %v, want 1", got)
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(1, http.MethodPost)
	key := func(r *http.Request) string { return r.Header.Get("X-Owner-ID") }
	handler := rl.Middleware(key, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/expenses", nil)
		req.Header.Set("X-Owner-ID", "u1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusCreated {
		t.Fatalf("first POST = %d", rec.Code)
	}
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	for i := 0; i < 5; i++ {
		if rec := do(http.MethodGet); rec.Code != http.StatusCreated {
			t.Fatalf("GET should bypass the limiter, got %d", rec.Code)
		}
	}
}

func TestLimiter_CustomOnLimit(t *testing.T) {
	rl, _ := newTestLimiter(1)
	called := false
	handler := rl.Middleware(
		func(*http.Request) string { return "ip" },
		func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("onLimit was not invoked")
	}
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Start()
	rl.Stop()
	rl.Stop()
}
