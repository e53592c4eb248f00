package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/circuitbreaker"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/httpmiddleware"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/ratelimiter"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Client wraps a resty client and protects it with an optional circuit breaker.
// The per-request timeout lives here, callers only pass a context.
type Client struct {
	rest    *resty.Client
	breaker circuitbreaker.CircuitBreaker
	limiter *ratelimiter.TokenBucket
}

// NewClient creates a Client for baseURL. A zero timeout means no client side timeout.
func NewClient(baseURL string, timeout time.Duration, cb config.CircuitBreakerConfig) (*Client, error) {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	rest.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Header.Get(httpmiddleware.RequestIDHeader) == "" {
			req.SetHeader(httpmiddleware.RequestIDHeader, uuid.NewString())
		}
		return nil
	})

	c := &Client{rest: rest}
	if cb.Enabled {
		breaker, err := createCircuitBreaker(cb)
		if err != nil {
			return nil, err
		}
		c.breaker = breaker
	}
	return c, nil
}

// Throttle paces outgoing requests through limiter. Do waits for a token before sending.
func (c *Client) Throttle(limiter *ratelimiter.TokenBucket) {
	c.limiter = limiter
}

// serverError marks a 5xx response so the breaker counts it without hiding the response.
type serverError struct{ status int }

func (e serverError) Error() string {
	return fmt.Sprintf("server error: received status code %d", e.status)
}

// Do sends method path with the request prepared by prep. The returned error is non-nil only for
// transport failures or an open circuit; HTTP error statuses come back in the response.
func (c *Client) Do(ctx context.Context, method, path string, prep func(*resty.Request)) (*resty.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req := c.rest.R().SetContext(ctx)
	if prep != nil {
		prep(req)
	}
	if c.breaker == nil {
		return req.Execute(method, path)
	}

	var resp *resty.Response
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = req.Execute(method, path)
		if err != nil {
			return err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return serverError{status: resp.StatusCode()}
		}
		return nil
	})
	var se serverError
	if errors.As(err, &se) {
		return resp, nil
	}
	return resp, err
}

// BreakerState reports the breaker state, Closed when the breaker is disabled.
func (c *Client) BreakerState() circuitbreaker.State {
	if c.breaker == nil {
		return circuitbreaker.Closed
	}
	return c.breaker.State()
}
