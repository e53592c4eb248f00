package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/httpmiddleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// helper function to create a middleware config for testing
func newTestConfig() config.MiddlewareConfig {
	return config.MiddlewareConfig{
		RateLimiter: config.RateLimiterConfig{
			Enabled:  true,
			Rate:     10,
			Capacity: 5,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			SuccessThreshold: 2,
			Timeout:          "10s",
		},
	}
}

func TestNewServer_WithAddress(t *testing.T) {
	srv, err := NewServer(newTestConfig(), WithAddress(":9999"))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if srv.Addr() != ":9999" {
		t.Errorf("Expected server address to be :9999, but got %s", srv.Addr())
	}
}

func TestNewServer_InvalidBreakerTimeout(t *testing.T) {
	cfg := newTestConfig()
	cfg.CircuitBreaker.Timeout = "often"
	if _, err := NewServer(cfg); err == nil {
		t.Error("Expected an error for an invalid breaker timeout")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimiter.Capacity = 2
	cfg.RateLimiter.Rate = 0.001

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	srv.Engine().GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(testServer.URL)
		if err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status OK on request %d, got %d", i+1, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(testServer.URL)
	if err != nil {
		t.Fatalf("Request 3 failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status TooManyRequests on request 3, got %d", resp.StatusCode)
	}
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimiter.Enabled = false

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	srv.Engine().GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "boom"})
	})

	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(testServer.URL + "/fail")
		if err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("Expected status InternalServerError on request %d, got %d", i+1, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(testServer.URL + "/fail")
	if err != nil {
		t.Fatalf("Request 3 failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status ServiceUnavailable on request 3, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Circuit Breaker is open") {
		t.Errorf("Expected body to contain 'Circuit Breaker is open', got '%s'", string(body))
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimiter.Enabled = false
	cfg.CircuitBreaker.Enabled = false

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	srv.Engine().GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(httpmiddleware.RequestIDHeader, "req-1")
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(httpmiddleware.RequestIDHeader); got != "req-1" {
		t.Errorf("Expected request id req-1, got %q", got)
	}
}
