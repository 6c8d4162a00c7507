package interceptors

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"golang.org/x/time/rate"
)

// RateLimit holds each request until limiter admits it. The wait is bounded by
// the request context.
func RateLimit(limiter *rate.Limiter) client.Fulfilled[*client.Config] {
	return func(ctx context.Context, cfg *client.Config) (*client.Config, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		return cfg, nil
	}
}

// NewRateLimit builds a limiter allowing rps requests per second with the
// given burst. A burst below one is raised to one.
func NewRateLimit(rps float64, burst int) client.Fulfilled[*client.Config] {
	if burst < 1 {
		burst = 1
	}
	return RateLimit(rate.NewLimiter(rate.Limit(rps), burst))
}
