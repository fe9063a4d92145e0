package retention

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/types"
)

const reasonPrompt = `Analyze the customer message and conversation to identify the cancellation reason.

Categories:
- cost: Financial concerns, too expensive, can't afford
- not_using: Not using the service, don't need it
- phone_issues: Device problems, technical frustration
- competitor: Found better deal elsewhere
- value: Doesn't see the value, questioning worth
- temporary: Moving, traveling, temporary situation
- other: Unclear or other reason

Respond with just the category name.`

// DetectReason asks the model for the cancellation reason category.
// Unknown answers map to types.ReasonOther; call failures are returned.
func (a *Agent) DetectReason(ctx context.Context, message, history string) (types.CancellationReason, error) {
	user := fmt.Sprintf("Message: %s\n\nHistory: %s", message, history)
	raw, err := llm.Complete(ctx, a.caller, a.cfg.Model, reasonPrompt, user, 0)
	if err != nil {
		return "", fmt.Errorf("detect cancellation reason: %w", err)
	}
	return parseReason(raw), nil
}

func parseReason(raw string) types.CancellationReason {
	raw = strings.Trim(strings.TrimSpace(raw), "`\"'.")
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = strings.Trim(fields[0], "`\"'.,:")
	}
	return types.ParseCancellationReason(raw)
}
