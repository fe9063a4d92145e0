package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/retainflow/llm"
	"go.uber.org/zap"
)

// RateLimitPolicy configures RateLimitRetryer.
type RateLimitPolicy struct {
	MaxRetries int           // 限流重试次数，之后还有一次不受保护的最终调用
	BaseDelay  time.Duration // 第 i 次等待 BaseDelay*(i+1)

	// OnWait is called before each wait with the 1-based retry number.
	OnWait func(retry, maxRetries int, delay time.Duration)

	// OnRetry is called after each wait, before the call is repeated.
	OnRetry func()
}

// DefaultRateLimitPolicy waits 15s, 30s, 45s.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{
		MaxRetries: 3,
		BaseDelay:  15 * time.Second,
	}
}

// RateLimitRetryer decorates an llm.Caller with linear backoff on rate-limit errors.
// Other errors are returned immediately.
type RateLimitRetryer struct {
	next   llm.Caller
	policy RateLimitPolicy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRateLimitRetryer wraps next.
func NewRateLimitRetryer(next llm.Caller, policy RateLimitPolicy, logger *zap.Logger) *RateLimitRetryer {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitRetryer{
		next:   next,
		policy: policy,
		logger: logger.With(zap.String("component", "ratelimit_retryer")),
		sleep:  sleepContext,
	}
}

// WithSleep replaces the wait function; tests use it to skip real delays.
func (r *RateLimitRetryer) WithSleep(fn func(ctx context.Context, d time.Duration) error) *RateLimitRetryer {
	r.sleep = fn
	return r
}

// Delay returns the wait before retry number attempt+1.
func (r *RateLimitRetryer) Delay(attempt int) time.Duration {
	return r.policy.BaseDelay * time.Duration(attempt+1)
}

// Completion implements llm.Caller.
func (r *RateLimitRetryer) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	for attempt := 0; attempt < r.policy.MaxRetries; attempt++ {
		resp, err := r.next.Completion(ctx, req)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("call succeeded after rate limit", zap.Int("attempt", attempt))
			}
			return resp, nil
		}
		if !llm.IsRateLimited(err) {
			return nil, err
		}

		delay := r.Delay(attempt)
		r.logger.Warn("rate limited, waiting before retry",
			zap.Duration("delay", delay),
			zap.Int("retry", attempt+1),
			zap.Int("max_retries", r.policy.MaxRetries),
			zap.Error(err),
		)
		if r.policy.OnWait != nil {
			r.policy.OnWait(attempt+1, r.policy.MaxRetries, delay)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
		if r.policy.OnRetry != nil {
			r.policy.OnRetry()
		}
	}

	// 重试耗尽后的最终调用，结果原样返回
	return r.next.Completion(ctx, req)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
