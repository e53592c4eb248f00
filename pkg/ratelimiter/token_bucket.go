package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// TokenBucket implements RateLimiter on top of golang.org/x/time/rate.
// It allows bursts up to capacity and refills at rate tokens per second.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a new TokenBucket. The bucket starts full.
func NewTokenBucket(ratePerSecond float64, capacity int) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), capacity)}
}

// Allow consumes one token if available.
func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}
