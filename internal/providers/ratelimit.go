package providers

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces provider requests with a token bucket and keeps
// counters for the status endpoint.
type RateLimiter struct {
	limiter *rate.Limiter

	mu            sync.Mutex
	totalConsumed int64
	totalWaited   time.Duration
	last429Time   time.Time
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	TokensAvailable   int           `json:"tokens_available"`
	TokensLimit       int           `json:"tokens_limit"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	TotalConsumed     int64         `json:"total_consumed"`
	TotalWaited       time.Duration `json:"total_waited"`
	Last429Time       time.Time     `json:"last_429_time,omitempty"`
}

// NewRateLimiter creates a limiter allowing rps requests per second with a
// burst of ceil(rps). A non-positive rps disables limiting.
func NewRateLimiter(rps float64) *RateLimiter {
	if rps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	burst := int(math.Ceil(rps))
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	waited := time.Since(start)

	r.mu.Lock()
	r.totalConsumed++
	r.totalWaited += waited
	r.mu.Unlock()
	return nil
}

// Record429 notes a provider rate limit. When retryAfter is set the bucket
// is drained so the next caller waits for a refill.
func (r *RateLimiter) Record429(retryAfter time.Duration) {
	r.mu.Lock()
	r.last429Time = time.Now()
	r.mu.Unlock()

	if retryAfter > 0 && r.limiter.Limit() != rate.Inf {
		r.limiter.ReserveN(time.Now(), r.limiter.Burst())
	}
}

// Status returns current limiter status.
func (r *RateLimiter) Status() RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := r.limiter.Tokens()
	if tokens < 0 {
		tokens = 0
	}
	rps := float64(r.limiter.Limit())
	if r.limiter.Limit() == rate.Inf {
		rps = 0
	}
	return RateLimiterStatus{
		TokensAvailable:   int(tokens),
		TokensLimit:       r.limiter.Burst(),
		RequestsPerSecond: rps,
		TotalConsumed:     r.totalConsumed,
		TotalWaited:       r.totalWaited,
		Last429Time:       r.last429Time,
	}
}
