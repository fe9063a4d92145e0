package llm

import (
	"context"
	"time"
)

// CallObserver receives one record per model call.
type CallObserver interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// Call statuses reported to CallObserver.
const (
	CallStatusSuccess     = "success"
	CallStatusRateLimited = "rate_limited"
	CallStatusError       = "error"
)

// Instrument reports every call made through next to obs.
// Place it under the retry wrapper to observe each attempt.
func Instrument(next Caller, provider string, obs CallObserver) Caller {
	if obs == nil {
		return next
	}
	return CallerFunc(func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		start := time.Now()
		resp, err := next.Completion(ctx, req)

		model := req.Model
		var prompt, completion int
		if resp != nil {
			if resp.Model != "" {
				model = resp.Model
			}
			prompt, completion = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
		}
		obs.RecordLLMRequest(provider, model, CallStatus(err), time.Since(start), prompt, completion)
		return resp, err
	})
}

// CallStatus classifies a call outcome.
func CallStatus(err error) string {
	switch {
	case err == nil:
		return CallStatusSuccess
	case IsRateLimited(err):
		return CallStatusRateLimited
	default:
		return CallStatusError
	}
}
