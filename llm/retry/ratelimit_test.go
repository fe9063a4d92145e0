package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BaSui01/retainflow/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedCaller struct {
	errs  []error
	calls int
}

func (s *scriptedCaller) Completion(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &llm.ChatResponse{Choices: []llm.ChatChoice{{Message: llm.Message{Content: "ok"}}}}, nil
}

func rateLimited() error {
	return &llm.Error{Code: llm.ErrRateLimited, HTTPStatus: 429, Message: "429 Too Many Requests"}
}

func recordSleeps(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRateLimitRetryer_SuccessFirstTry(t *testing.T) {
	next := &scriptedCaller{}
	var delays []time.Duration
	r := NewRateLimitRetryer(next, DefaultRateLimitPolicy(), zap.NewNop()).WithSleep(recordSleeps(&delays))

	resp, err := r.Completion(context.Background(), &llm.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Choices[0].Message.Content)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, delays)
}

func TestRateLimitRetryer_LinearBackoff(t *testing.T) {
	next := &scriptedCaller{errs: []error{rateLimited(), rateLimited()}}
	var delays []time.Duration
	var notices []int
	policy := DefaultRateLimitPolicy()
	policy.OnWait = func(retry, max int, _ time.Duration) {
		assert.Equal(t, 3, max)
		notices = append(notices, retry)
	}
	r := NewRateLimitRetryer(next, policy, nil).WithSleep(recordSleeps(&delays))

	_, err := r.Completion(context.Background(), &llm.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second}, delays)
	assert.Equal(t, []int{1, 2}, notices)
}

func TestRateLimitRetryer_FailFastOnOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	next := &scriptedCaller{errs: []error{boom}}
	var delays []time.Duration
	r := NewRateLimitRetryer(next, DefaultRateLimitPolicy(), nil).WithSleep(recordSleeps(&delays))

	_, err := r.Completion(context.Background(), &llm.ChatRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, delays)
}

func TestRateLimitRetryer_FinalUnguardedAttempt(t *testing.T) {
	t.Run("final attempt succeeds", func(t *testing.T) {
		next := &scriptedCaller{errs: []error{rateLimited(), rateLimited(), rateLimited()}}
		var delays []time.Duration
		r := NewRateLimitRetryer(next, DefaultRateLimitPolicy(), nil).WithSleep(recordSleeps(&delays))

		resp, err := r.Completion(context.Background(), &llm.ChatRequest{})
		require.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Equal(t, 4, next.calls)
		assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second, 45 * time.Second}, delays)
	})

	t.Run("final attempt error surfaces as-is", func(t *testing.T) {
		last := rateLimited()
		next := &scriptedCaller{errs: []error{rateLimited(), rateLimited(), rateLimited(), last}}
		var delays []time.Duration
		r := NewRateLimitRetryer(next, DefaultRateLimitPolicy(), nil).WithSleep(recordSleeps(&delays))

		_, err := r.Completion(context.Background(), &llm.ChatRequest{})
		assert.Same(t, last, err)
		assert.Equal(t, 4, next.calls)
		assert.Len(t, delays, 3)
	})
}

func TestRateLimitRetryer_ContextCancelledDuringWait(t *testing.T) {
	next := &scriptedCaller{errs: []error{rateLimited()}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RateLimitPolicy{MaxRetries: 3, BaseDelay: time.Hour}
	r := NewRateLimitRetryer(next, policy, nil)

	_, err := r.Completion(ctx, &llm.ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, next.calls)
}

func TestRateLimitRetryer_ZeroRetries(t *testing.T) {
	next := &scriptedCaller{errs: []error{rateLimited()}}
	r := NewRateLimitRetryer(next, RateLimitPolicy{MaxRetries: 0, BaseDelay: time.Second}, nil)

	_, err := r.Completion(context.Background(), &llm.ChatRequest{})
	assert.True(t, llm.IsRateLimited(err))
	assert.Equal(t, 1, next.calls)
}
