package providers

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/domain"
)

// withRetry runs fn with jittered exponential backoff on transient errors
// only (timeout, 5xx, rate-limited honoring Retry-After), per spec §4.1:
// "100 ms base, 2x factor, cap 5 s, max 3 attempts".
func withRetry(ctx context.Context, cfg config.BackoffConfig, fn func(ctx context.Context) error) error {
	base := time.Duration(cfg.BaseMS) * time.Millisecond
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	capDelay := time.Duration(cfg.CapMS) * time.Millisecond
	if capDelay <= 0 {
		capDelay = 5 * time.Second
	}
	factor := cfg.FactorX
	if factor <= 0 {
		factor = 2
	}
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	delay := base
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			jittered := time.Duration(float64(delay) * (0.5 + rand.Float64()))
			if jittered > capDelay {
				jittered = capDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(jittered):
			}
			delay *= time.Duration(factor)
			if delay > capDelay {
				delay = capDelay
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}

		if rle, ok := lastErr.(*RateLimitedError); ok && rle.RetryAfter > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(rle.RetryAfter):
			}
		}
	}
	return lastErr
}

func isTransient(err error) bool {
	if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var rle *RateLimitedError
	return errors.As(err, &rle)
}

// RateLimitedError wraps a 429 response, honoring any Retry-After header the
// upstream sent.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return "rate limited" }
func (e *RateLimitedError) Unwrap() error { return domain.ErrRateLimited }

// ClassifyHTTPStatus maps an HTTP status + header set to the provider error
// taxonomy in spec §4.1/§7.
func ClassifyHTTPStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		ra := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &RateLimitedError{RetryAfter: ra}
	case resp.StatusCode >= 500:
		return domain.ErrUpstreamUnavailable
	case resp.StatusCode >= 400:
		return errors.New("upstream client error: " + resp.Status)
	default:
		return nil
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil {
		return secs
	}
	return 0
}
