package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"quizroom/internal/cache"
	"quizroom/internal/model"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAccessGate(t *testing.T) {
	signedIn := model.Identity{UserID: "u1", Authenticated: true}
	cases := []struct {
		name     string
		path     string
		id       model.Identity
		status   int
		location string
	}{
		{"private page signed out", "/rooms/create", model.Identity{}, http.StatusFound, "/login?callbackUrl=%2Frooms%2Fcreate"},
		{"nested private page", "/questions/abc", model.Identity{}, http.StatusFound, "/login?callbackUrl=%2Fquestions%2Fabc"},
		{"private page signed in", "/dashboard", signedIn, http.StatusNoContent, ""},
		{"auth page signed in", "/register", signedIn, http.StatusFound, "/dashboard"},
		{"auth page signed out", "/login", model.Identity{}, http.StatusNoContent, ""},
		{"api never redirected", "/api/profile", model.Identity{}, http.StatusNoContent, ""},
		{"prefix is not a page", "/dashboards", model.Identity{}, http.StatusNoContent, ""},
		{"guest is signed out", "/profile", model.Identity{GuestID: "g1", GuestRoomID: "r1"}, http.StatusFound, "/login?callbackUrl=%2Fprofile"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			req = req.WithContext(WithIdentity(req.Context(), tc.id))
			rec := httptest.NewRecorder()
			AccessGate(okHandler).ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tc.location {
				t.Errorf("expected location %q, got %q", tc.location, loc)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	if ip := ClientIP(req); ip != "198.51.100.7" {
		t.Errorf("remote addr: got %q", ip)
	}
	req.Header.Set("X-Real-IP", "203.0.113.2")
	if ip := ClientIP(req); ip != "203.0.113.2" {
		t.Errorf("x-real-ip: got %q", ip)
	}
	req.Header.Set("X-Forwarded-For", "192.0.2.10, 10.0.0.1")
	if ip := ClientIP(req); ip != "192.0.2.10" {
		t.Errorf("x-forwarded-for: got %q", ip)
	}
}

type stubCounter struct {
	res cache.RateLimitResult
	err error
}

func (s stubCounter) Hit(context.Context, string, string, int, time.Duration) (cache.RateLimitResult, error) {
	return s.res, s.err
}

func TestRateLimiterLimit(t *testing.T) {
	serve := func(c cache.RateLimitCache) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		NewRateLimiter(c, 5, time.Minute).Limit("login", okHandler).ServeHTTP(rec, httptest.NewRequest("POST", "/api/login", nil))
		return rec
	}

	rec := serve(stubCounter{res: cache.RateLimitResult{Allowed: true, Count: 2, Remaining: 3}})
	if rec.Code != http.StatusNoContent || rec.Header().Get("X-RateLimit-Remaining") != "3" {
		t.Fatalf("allowed: got %d remaining=%q", rec.Code, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec = serve(stubCounter{res: cache.RateLimitResult{Count: 6, RetryAfter: 1500 * time.Millisecond}})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("blocked: expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("retry-after: expected 2, got %q", got)
	}

	rec = serve(stubCounter{err: errors.New("redis down")})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("counter failure should fail open, got %d", rec.Code)
	}
}

func TestThrottle(t *testing.T) {
	h := Throttle(rate.NewLimiter(rate.Every(time.Hour), 1))(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/login", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: expected 204, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("burst exhausted: expected 429, got %d", rec.Code)
	}
}
