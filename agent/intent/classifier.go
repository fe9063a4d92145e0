// Package intent classifies a customer message into a coarse intent.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/types"
	"go.uber.org/zap"
)

const systemPrompt = `Classify the customer's intent into one of these categories:
- cancellation: Wants to cancel, stop, or remove service
- technical: Device issues, troubleshooting needed (broken, not working, won't charge, overheating, slow, freezing, crashing)
- billing: Payment or charge questions (charged, payment, invoice, bill, refund, price)
- general: Other inquiries

Priority rules:
- If the message mentions BOTH a technical issue AND wanting to cancel, classify it as technical.
- Billing questions are billing unless the customer explicitly asks to cancel.

Respond with JSON only: {"intent": "...", "confidence": 0.X, "reasoning": "..."}`

// DefaultTechnicalLexicon lists device-problem phrases that outrank a cancellation request.
var DefaultTechnicalLexicon = []string{
	"won't charge", "wont charge", "not charging", "stopped charging",
	"overheat", "broken", "not working", "stopped working",
	"freezing", "freezes", "crashing", "crashes",
	"won't turn on", "wont turn on", "cracked screen", "battery drain",
}

// Config tunes the classifier.
type Config struct {
	Model            string
	Temperature      float32
	TechnicalLexicon []string
}

// Classifier calls the model and parses its JSON verdict.
type Classifier struct {
	caller    llm.Caller
	cfg       Config
	technical []string
	logger    *zap.Logger
}

// New creates a Classifier. A nil TechnicalLexicon uses DefaultTechnicalLexicon.
func New(caller llm.Caller, cfg Config, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	lex := cfg.TechnicalLexicon
	if lex == nil {
		lex = DefaultTechnicalLexicon
	}
	technical := make([]string, 0, len(lex))
	for _, p := range lex {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			technical = append(technical, p)
		}
	}
	return &Classifier{
		caller:    caller,
		cfg:       cfg,
		technical: technical,
		logger:    logger.With(zap.String("component", "intent_classifier")),
	}
}

// Classify asks the model for a verdict. Call failures are returned;
// unparseable output yields types.DefaultIntent. A cancellation verdict on a
// message that describes a device problem is turned into technical.
func (c *Classifier) Classify(ctx context.Context, message, history string) (types.IntentResult, error) {
	user := fmt.Sprintf("Customer message: %s\nContext: %s", message, history)
	raw, err := llm.Complete(ctx, c.caller, c.cfg.Model, systemPrompt, user, c.cfg.Temperature)
	if err != nil {
		return types.IntentResult{}, fmt.Errorf("intent classification: %w", err)
	}

	res, err := Parse(raw)
	if err != nil {
		c.logger.Warn("intent classification unparseable, using default",
			zap.Error(err), zap.String("raw", truncate(raw, 200)))
		return types.DefaultIntent(), nil
	}

	if res.Intent == types.IntentCancellation && c.mentionsTechnical(message) {
		c.logger.Debug("technical issue outranks cancellation")
		res.Intent = types.IntentTechnical
		res.Reasoning = "technical issue takes priority over cancellation: " + res.Reasoning
	}
	return res, nil
}

func (c *Classifier) mentionsTechnical(message string) bool {
	lower := strings.ToLower(message)
	for _, p := range c.technical {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

type verdict struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// Parse extracts the first JSON object from raw model output, tolerating
// markdown code fences, and validates it.
func Parse(raw string) (types.IntentResult, error) {
	body := stripFences(raw)
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return types.IntentResult{}, fmt.Errorf("no JSON object in classifier output")
	}

	var v verdict
	if err := json.Unmarshal([]byte(body[start:end+1]), &v); err != nil {
		return types.IntentResult{}, fmt.Errorf("decode classifier output: %w", err)
	}

	in := types.Intent(strings.ToLower(strings.TrimSpace(v.Intent)))
	if !in.Valid() {
		return types.IntentResult{}, fmt.Errorf("unknown intent %q", v.Intent)
	}

	conf := 0.5
	if v.Confidence != nil {
		conf = min(max(*v.Confidence, 0), 1)
	}
	return types.IntentResult{Intent: in, Confidence: conf, Reasoning: v.Reasoning}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // language tag
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
