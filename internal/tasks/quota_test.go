package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mossridge/ytup/internal/services"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"server error", &services.APIError{StatusCode: 503}, KindTransient},
		{"bad gateway", &services.APIError{StatusCode: 502}, KindTransient},
		{"rate limit status", &services.APIError{StatusCode: 429}, KindRateLimited},
		{"rate limit reason", &services.APIError{StatusCode: 403, Reason: "rateLimitExceeded"}, KindRateLimited},
		{"user rate limit", &services.APIError{StatusCode: 403, Reason: "userRateLimitExceeded"}, KindRateLimited},
		{"quota", &services.APIError{StatusCode: 403, Reason: "quotaExceeded"}, KindQuotaExceeded},
		{"daily limit", &services.APIError{StatusCode: 403, Reason: "dailyLimitExceeded"}, KindQuotaExceeded},
		{"upload limit", &services.APIError{StatusCode: 400, Reason: "uploadLimitExceeded"}, KindQuotaExceeded},
		{"bad request", &services.APIError{StatusCode: 400}, KindFatal},
		{"unauthorized", &services.APIError{StatusCode: 401}, KindFatal},
		{"forbidden", &services.APIError{StatusCode: 403}, KindFatal},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), KindTransient},
		{"plain error", errors.New("connection reset"), KindTransient},
		{"wrapped api error", fmt.Errorf("chunk: %w", &services.APIError{StatusCode: 403, Reason: "quotaExceeded"}), KindQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoffPolicy_DelayGrowsAndStaysBounded(t *testing.T) {
	policy := BackoffPolicy{Base: 100 * time.Millisecond, JitterMax: 50 * time.Millisecond, MaxAttempts: 5}
	rng := func() float64 { return 0.5 }

	var prev time.Duration
	for attempt := range policy.MaxAttempts {
		d := policy.Delay(attempt, rng)
		if d <= prev {
			t.Errorf("Delay(%d) = %v, not greater than previous %v", attempt, d, prev)
		}
		if d > policy.Max(attempt) {
			t.Errorf("Delay(%d) = %v exceeds bound %v", attempt, d, policy.Max(attempt))
		}
		if floor := policy.Base << uint(attempt); d < floor {
			t.Errorf("Delay(%d) = %v below exponential floor %v", attempt, d, floor)
		}
		prev = d
	}
}

func TestBackoffPolicy_NilRng(t *testing.T) {
	policy := BackoffPolicy{Base: time.Second, JitterMax: time.Second}
	if got := policy.Delay(0, nil); got != time.Second {
		t.Errorf("Delay(0, nil) = %v, want 1s", got)
	}
}

func TestQuotaGuard(t *testing.T) {
	guard := NewQuotaGuard()
	if guard.Halted() {
		t.Error("new guard should not be halted")
	}
	guard.Halt()
	guard.Halt() // idempotent
	if !guard.Halted() {
		t.Error("guard should be halted after Halt()")
	}
}
