package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julianvossen/gatherly-backend/pkg/logger"
)

type fakeLimiterStore struct {
	counts map[string]int64
	err    error
}

func (s *fakeLimiterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	if s.counts == nil {
		s.counts = make(map[string]int64)
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func limiterLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func passthrough() (http.Handler, *int) {
	calls := 0
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}), &calls
}

func TestAuthRateLimitBlocksAfterIPLimit(t *testing.T) {
	store := &fakeLimiterStore{}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	next, calls := passthrough()
	handler := AuthRateLimit(policy, store, limiterLogger())(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: unexpected status %d", i, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if *calls != 2 {
		t.Fatalf("expected 2 passthroughs, got %d", *calls)
	}
}

func TestAuthRateLimitCountsPerEmail(t *testing.T) {
	store := &fakeLimiterStore{}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	next, _ := passthrough()
	handler := AuthRateLimit(policy, store, limiterLogger())(next)

	send := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`"}`))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	if code := send("Ana@Example.com"); code != http.StatusOK {
		t.Fatalf("first attempt blocked: %d", code)
	}
	// Case and whitespace variants hash to the same counter.
	if code := send("ana@example.com "); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same email, got %d", code)
	}
	if code := send("other@example.com"); code != http.StatusOK {
		t.Fatalf("different email blocked: %d", code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 10, 10)
	next, calls := passthrough()
	handler := AuthRateLimit(policy, &fakeLimiterStore{}, limiterLogger())(next)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || *calls != 1 {
		t.Fatalf("expected passthrough, got %d (%d calls)", resp.Code, *calls)
	}
}

func TestAuthRateLimitPreservesBodyForNext(t *testing.T) {
	store := &fakeLimiterStore{}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 5)
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthRateLimit(policy, store, limiterLogger())(next)

	payload := `{"email":"ana@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen != payload {
		t.Fatalf("body not replayed for handler, got %q", seen)
	}
}
