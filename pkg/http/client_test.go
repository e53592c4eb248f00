package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/circuitbreaker"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/httpmiddleware"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/ratelimiter"
	"github.com/go-resty/resty/v2"
)

func TestClientReturnsServerErrorResponse(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get(httpmiddleware.RequestIDHeader) == "" {
			t.Errorf("Expected a request id header")
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, time.Second, config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          "1m",
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		resp, err := c.Do(context.Background(), http.MethodGet, "/x", nil)
		if err != nil {
			t.Fatalf("call %d: unexpected error %v", i+1, err)
		}
		if resp.StatusCode() != http.StatusBadGateway {
			t.Errorf("call %d: expected 502, got %d", i+1, resp.StatusCode())
		}
	}

	if c.BreakerState() != circuitbreaker.Open {
		t.Fatalf("Expected breaker to be open, got %s", c.BreakerState())
	}
	_, err = c.Do(context.Background(), http.MethodGet, "/x", nil)
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected 2 requests to reach the server, got %d", got)
	}
}

func TestClientTimeoutIsEnforced(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c, err := NewClient(ts.URL, 50*time.Millisecond, config.CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	start := time.Now()
	_, err = c.Do(context.Background(), http.MethodGet, "/slow", func(r *resty.Request) {
		r.SetQueryParam("page", "1")
	})
	if err == nil {
		t.Fatal("Expected a timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Expected the request to be cut off by the client timeout")
	}
}

func TestClientThrottleWaitsForToken(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, time.Second, config.CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	c.Throttle(ratelimiter.NewTokenBucket(0.1, 1))

	if _, err := c.Do(context.Background(), http.MethodGet, "/x", nil); err != nil {
		t.Fatalf("first call: unexpected error %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Do(ctx, http.MethodGet, "/x", nil); err == nil {
		t.Error("Expected the second call to give up waiting for a token")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected 1 request to reach the server, got %d", got)
	}
}
