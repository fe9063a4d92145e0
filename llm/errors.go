package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/BaSui01/retainflow/types"
)

// IsRateLimited reports whether err signals a rate-limit or resource-exhausted condition.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var le *Error
	if errors.As(err, &le) {
		if le.Code == ErrRateLimited || le.Code == ErrQuotaExceeded || le.HTTPStatus == http.StatusTooManyRequests {
			return true
		}
	}
	if te, ok := types.AsError(err); ok && te.Code == types.ErrRateLimited {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// IsRetryable reports whether a provider marked err as retryable.
func IsRetryable(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Retryable
	}
	return types.IsRetryable(err)
}
