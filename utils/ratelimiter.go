package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing page loads to one request per delay
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new RateLimiter with the given delay in milliseconds
func NewRateLimiter(delayMs int) *RateLimiter {
	if delayMs <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Duration(delayMs)*time.Millisecond), 1),
	}
}

// Wait blocks until the next request is allowed or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
