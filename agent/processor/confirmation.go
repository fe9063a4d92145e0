package processor

import (
	"context"
	"fmt"

	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/types"
)

const systemPrompt = `You are The Processor, handling service cancellations for TechFlow Electronics.

A customer has decided to cancel their service after speaking with our retention team. Your job is to:
1. Confirm their decision professionally
2. Explain what happens next
3. Leave a positive final impression

The action below HAS ALREADY BEEN PROCESSED. Explain the timeline:
- Service continues until end of current billing cycle
- No further charges after cancellation
- They can reactivate anytime within 30 days

IMPORTANT:
- Never try to retain at this stage
- Be professional and respectful

Customer information:
%s

Final decision: %s
Processing result: %s

Conversation history:
%s`

// Reply asks the model for the closing confirmation. result is nil when no
// action could be processed (unidentified customer).
func (p *Processor) Reply(ctx context.Context, message, history string, customer *types.CustomerRecord, action types.AccountAction, result *types.ActionResult) (string, error) {
	outcome := "Not processed: the customer account could not be identified. Ask them to contact support with their account email."
	if result != nil {
		outcome = result.Message
	}
	system := fmt.Sprintf(systemPrompt, customer.Summary(), action, outcome, history)
	out, err := llm.Complete(ctx, p.caller, p.cfg.Model, system, message, p.cfg.Temperature)
	if err != nil {
		return "", fmt.Errorf("processor reply: %w", err)
	}
	return out, nil
}

// Confirmation is the canned customer-facing text for action.
// Actions without a dedicated text use the cancellation text.
func Confirmation(customer *types.CustomerRecord, action types.AccountAction) string {
	name, plan := "Valued Customer", "your plan"
	if customer != nil {
		if customer.Name != "" {
			name = customer.Name
		}
		if customer.PlanType != "" {
			plan = customer.PlanType
		}
	}

	switch action {
	case types.ActionPause:
		return fmt.Sprintf(`Your subscription has been paused, %s.

Here's what you need to know:
• Your %s coverage is now on hold
• You won't be charged during the pause period
• Your benefits will automatically resume at the end of the pause
• You can resume early anytime by contacting us

Thank you for giving us a chance to earn your continued business!

Is there anything else I can help you with today?`, name, plan)
	case types.ActionDowngrade:
		return fmt.Sprintf(`Your plan has been downgraded, %s.

Here's what you need to know:
• Your new plan takes effect next billing cycle
• You'll see the reduced rate on your next bill
• Your current coverage continues until the changeover

Thank you for staying with TechFlow!

Is there anything else I can help you with today?`, name)
	default:
		return fmt.Sprintf(`Your cancellation has been processed, %s.

Here's what you need to know:
• Your %s coverage remains active until the end of your billing cycle
• You won't be charged for the next billing period
• You can reactivate anytime within 30 days at the same rate

Thank you for being a TechFlow customer. We hope to see you again!

Is there anything else I can help you with today?`, name, plan)
	}
}
