package tasks

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/mossridge/ytup/internal/services"
)

// ErrorKind classifies a remote failure for retry policy selection.
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindRateLimited
	KindQuotaExceeded
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindFatal:
		return "fatal"
	default:
		return ""
	}
}

// quotaReasons are the remote reason codes that signal account-level
// exhaustion rather than per-request throttling.
var quotaReasons = map[string]bool{
	"quotaExceeded":       true,
	"dailyLimitExceeded":  true,
	"uploadLimitExceeded": true,
}

// Classify maps an error from a remote call onto an ErrorKind.
//
// Non-APIError failures (network timeouts, malformed responses) are treated as
// transient; only explicit auth/schema rejections are fatal.
func Classify(err error) ErrorKind {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		switch {
		case quotaReasons[apiErr.Reason]:
			return KindQuotaExceeded
		case apiErr.StatusCode == 429,
			apiErr.Reason == "rateLimitExceeded",
			apiErr.Reason == "userRateLimitExceeded":
			return KindRateLimited
		case apiErr.StatusCode >= 500:
			return KindTransient
		case apiErr.StatusCode == 400, apiErr.StatusCode == 401, apiErr.StatusCode == 403:
			return KindFatal
		default:
			return KindTransient
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	return KindTransient
}

// BackoffPolicy computes retry delays for one error class. Delay is a pure
// function of the attempt count so tests can verify bounds without sleeping.
type BackoffPolicy struct {
	Base        time.Duration
	JitterMax   time.Duration
	MaxAttempts int
}

// Default policies: transient errors retry quickly with a small cap;
// rate limiting tolerates more attempts with longer waits.
var (
	DefaultTransientPolicy = BackoffPolicy{Base: 500 * time.Millisecond, JitterMax: 250 * time.Millisecond, MaxAttempts: 3}
	DefaultRateLimitPolicy = BackoffPolicy{Base: 5 * time.Second, JitterMax: time.Second, MaxAttempts: 5}
)

// Delay returns base * 2^attempt plus uniform jitter drawn from rng in [0,1).
// attempt is zero-based.
func (p BackoffPolicy) Delay(attempt int, rng func() float64) time.Duration {
	d := p.Base << uint(attempt)
	if rng != nil && p.JitterMax > 0 {
		d += time.Duration(rng() * float64(p.JitterMax))
	}
	return d
}

// Max returns the upper bound on Delay for the given attempt.
func (p BackoffPolicy) Max(attempt int) time.Duration {
	return p.Base<<uint(attempt) + p.JitterMax
}

// QuotaGuard carries the run-wide cooperative halt flag. Raising it stops new
// dispatch and new chunk attempts; it never force-cancels an in-flight chunk.
type QuotaGuard struct {
	halted atomic.Bool
}

func NewQuotaGuard() *QuotaGuard {
	return &QuotaGuard{}
}

// Halt raises the flag. Safe to call from multiple workers.
func (g *QuotaGuard) Halt() {
	g.halted.Store(true)
}

// Halted reports whether the flag has been raised.
func (g *QuotaGuard) Halted() bool {
	return g.halted.Load()
}
