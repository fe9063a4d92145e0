// Package orchestrator writes the greeter's replies: the first point of
// contact that identifies the customer and understands what they need.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/types"
	"go.uber.org/zap"
)

// Greeting opens every conversation.
const Greeting = `Hello! Welcome to TechFlow Electronics support.
I'm here to help you today.

Could you please provide your email address so I can look up your account?`

const systemPrompt = `You are The Greeter, the first point of contact for TechFlow Electronics customer support.

Your responsibilities:
1. Warmly greet the customer
2. Identify who they are (get their email to look up their account)
3. Understand what they need help with
4. Let them know you are connecting them with the right specialist

IMPORTANT RULES:
- Always be warm and helpful
- Ask for the customer's email early if the account is not identified yet
- Never make assumptions about intent; ask clarifying questions if unsure
- Keep replies short: two to four sentences

Current customer context:
%s

Detected intent: %s

Conversation history:
%s`

// Config tunes reply generation.
type Config struct {
	Model       string
	Temperature float32
}

// Agent generates greeter replies.
type Agent struct {
	caller llm.Caller
	cfg    Config
	logger *zap.Logger
}

// New creates an Agent.
func New(caller llm.Caller, cfg Config, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{caller: caller, cfg: cfg, logger: logger.With(zap.String("component", "orchestrator"))}
}

// Reply generates the greeter's answer to message.
func (a *Agent) Reply(ctx context.Context, message, history string, customer *types.CustomerRecord, in types.IntentResult) (string, error) {
	system := fmt.Sprintf(systemPrompt, customer.Summary(), in.Intent, orNone(history))
	out, err := llm.Complete(ctx, a.caller, a.cfg.Model, system, message, a.cfg.Temperature)
	if err != nil {
		return "", fmt.Errorf("orchestrator reply: %w", err)
	}
	return out, nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
