package account

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leaguehq/auction-engine/internal/platform/resilience"
	"github.com/leaguehq/auction-engine/internal/usecase"
)

func breakerConfig(threshold int) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

func TestClient_VerifyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/introspect" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":true,"team_id":"team-a","season":"2026"}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "/v1/introspect", breakerConfig(5), nil)

	principal, err := c.VerifyAccessToken(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.TeamID != "team-a" || principal.Season != "2026" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestClient_VerifyAccessToken_Unauthorized(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "denied", status: http.StatusUnauthorized, payload: ""},
		{name: "forbidden", status: http.StatusForbidden, payload: ""},
		{name: "inactive token", status: http.StatusOK, payload: `{"active":false}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				if tc.payload != "" {
					_, _ = w.Write([]byte(tc.payload))
				}
			}))
			defer server.Close()

			c := NewClient(server.Client(), server.URL, "/v1/introspect", breakerConfig(5), nil)
			_, err := c.VerifyAccessToken(context.Background(), "token")
			if !errors.Is(err, usecase.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestClient_VerifyAccessToken_EmptyToken(t *testing.T) {
	c := NewClient(nil, "http://localhost:0", "/v1/introspect", resilience.CircuitBreakerConfig{}, nil)
	if _, err := c.VerifyAccessToken(context.Background(), "  "); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "/v1/introspect", breakerConfig(3), nil)

	// Distinct tokens so singleflight does not collapse the calls.
	tokens := []string{"t1", "t2", "t3", "t4", "t5"}
	var lastErr error
	for _, token := range tokens {
		_, lastErr = c.VerifyAccessToken(context.Background(), token)
	}

	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 calls before the breaker opened, got %d", got)
	}
	if !errors.Is(lastErr, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable once open, got %v", lastErr)
	}
}

func TestClient_AuthRejectionsDoNotTripBreaker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "/v1/introspect", breakerConfig(3), nil)

	for _, token := range []string{"t1", "t2", "t3", "t4", "t5"} {
		if _, err := c.VerifyAccessToken(context.Background(), token); !errors.Is(err, usecase.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("401s should not open the breaker, got %d calls", got)
	}
}

func TestBuildURL(t *testing.T) {
	cases := []struct {
		base string
		path string
		want string
	}{
		{base: "http://accounts.internal/", path: "/v1/introspect", want: "http://accounts.internal/v1/introspect"},
		{base: "http://accounts.internal", path: "v1/introspect", want: "http://accounts.internal/v1/introspect"},
		{base: "http://accounts.internal", path: "", want: "http://accounts.internal"},
		{base: "http://accounts.internal", path: "https://other.internal/introspect", want: "https://other.internal/introspect"},
	}
	for _, tc := range cases {
		if got := buildURL(tc.base, tc.path); got != tc.want {
			t.Fatalf("buildURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}
