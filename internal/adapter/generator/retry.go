package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

var (
	statusPattern     = regexp.MustCompile(`status code:? (\d{3})`)
	retryHintPattern  = regexp.MustCompile(`(?i)(?:try again|retry) in (\d+(?:\.\d+)?)\s*(ms|s)`)
	retryAfterPattern = regexp.MustCompile(`(?i)retry-after:?\s*(\d+)`)
)

// StatusError is a provider error with its HTTP status and, when the
// provider sent one, the Retry-After delay.
type StatusError struct {
	Code       int
	RetryAfter time.Duration
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider returned status %d", e.Code)
	}
	return fmt.Sprintf("provider returned status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// RetryPolicy decides whether a failed generator call is retried and how
// long to wait before the next attempt.
type RetryPolicy struct {
	MaxAttempts     int
	RetryableStatus []int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
}

// DefaultRetryPolicy returns three attempts with exponential backoff
// starting at 500ms, retrying timeouts, rate limits and 5xx gateway errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		RetryableStatus: []int{408, 429, 500, 502, 503, 504},
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        20 * time.Second,
	}
}

// ShouldRetry reports whether another attempt follows the failed attempt
// number attempt (1-based).
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt >= p.MaxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, ErrAPIKeyMissing) {
		return false
	}
	if code, ok := StatusCode(err); ok {
		return slices.Contains(p.RetryableStatus, code)
	}
	// Transport errors carry no status.
	return true
}

// Backoff returns the wait after the failed attempt number attempt. A
// provider hint wins over the exponential schedule; both are capped at
// MaxDelay.
func (p RetryPolicy) Backoff(attempt int, err error) time.Duration {
	delay, ok := retryHint(err)
	if !ok {
		delay = p.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
			if p.MaxDelay > 0 && delay >= p.MaxDelay {
				break
			}
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// Do runs op until it succeeds, the policy gives up, or ctx is done. The
// last error is returned.
func Do(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	if policy.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("generator call succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !policy.ShouldRetry(attempt, lastErr) {
			return lastErr
		}

		delay := policy.Backoff(attempt, lastErr)
		slog.Debug("generator call failed, will retry",
			"attempt", attempt, "maxAttempts", policy.MaxAttempts, "delay", delay, "error", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// StatusCode extracts the HTTP status from err, either from a StatusError
// in its chain or from the message text of client errors.
func StatusCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, convErr := strconv.Atoi(m[1])
		return code, convErr == nil
	}
	return 0, false
}

func retryHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter, true
	}

	msg := err.Error()
	if m := retryHintPattern.FindStringSubmatch(msg); m != nil {
		v, convErr := strconv.ParseFloat(m[1], 64)
		if convErr == nil {
			unit := time.Second
			if m[2] == "ms" {
				unit = time.Millisecond
			}
			return time.Duration(v * float64(unit)), true
		}
	}
	if m := retryAfterPattern.FindStringSubmatch(msg); m != nil {
		secs, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return time.Duration(secs) * time.Second, true
		}
	}
	return 0, false
}

// ParseRetryAfter reads a Retry-After header given in seconds.
func ParseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
