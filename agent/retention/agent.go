package retention

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/llm/tokenizer"
	"github.com/BaSui01/retainflow/rag"
	"github.com/BaSui01/retainflow/types"
	"go.uber.org/zap"
)

const systemPrompt = `You are The Problem Solver, a skilled retention specialist for TechFlow Electronics.

Your goal is to RETAIN customers who want to cancel by genuinely helping them. You're not pushy - you're helpful.

YOUR APPROACH:
1. EMPATHIZE: Acknowledge their frustration or concern first
2. DISCOVER: Understand the real reason they want to cancel
3. SOLVE: Offer relevant solutions based on their specific situation
4. CONFIRM: Only proceed with cancellation if they insist after solutions offered

CANCELLATION REASONS & SOLUTIONS:
- Cost concerns: offer discount, payment pause, or downgrade to cheaper plan
- Not using it: educate on value, offer pause, remind of coverage benefits
- Phone problems: offer replacement/repair FIRST, then discuss retention
- Competitor offer: match or beat the offer if within guidelines
- Moving/temporary: offer pause, promise easy reactivation

RULES:
- Maximum 3 offers before accepting cancellation
- Never be pushy or guilt-trip
- Present at most ONE new offer per reply
- When your reply presents an offer from the list below, end it with the marker [OFFER:<type>] using the offer's type
- Always use customer data to personalize offers
`

var offerMarker = regexp.MustCompile(`(?i)\s*\[OFFER:\s*([a-z_\- ]+?)\s*\]`)

// PolicySearcher retrieves policy passages. It never fails; an unavailable
// index yields no hits.
type PolicySearcher interface {
	SearchPolicies(ctx context.Context, query string, k int) []rag.PolicyHit
}

// Config tunes the retention agent.
type Config struct {
	Model           string
	Temperature     float32
	PolicyTopK      int // passages pulled into the prompt
	PolicyMaxTokens int // budget for the policy section
	OfferSoftCap    int
}

// ReplyInput is everything the agent needs for one reply.
type ReplyInput struct {
	Message    string
	History    string
	Customer   *types.CustomerRecord
	OffersMade []types.Offer
	Reason     types.CancellationReason
}

// ReplyResult is the visible reply and the offer it committed to, if any.
type ReplyResult struct {
	Text  string
	Offer *types.Offer
}

// Agent negotiates with customers who want to cancel.
type Agent struct {
	caller   llm.Caller
	cfg      Config
	calc     *Calculator
	policies PolicySearcher
	tok      tokenizer.Tokenizer
	logger   *zap.Logger
}

// NewAgent creates a retention agent. policies and tok may be nil.
func NewAgent(caller llm.Caller, calc *Calculator, policies PolicySearcher, tok tokenizer.Tokenizer, cfg Config, logger *zap.Logger) *Agent {
	if cfg.PolicyTopK <= 0 {
		cfg.PolicyTopK = 2
	}
	if cfg.PolicyMaxTokens <= 0 {
		cfg.PolicyMaxTokens = 250
	}
	if cfg.OfferSoftCap <= 0 {
		cfg.OfferSoftCap = OfferSoftCap
	}
	if calc == nil {
		calc = NewCalculator(nil)
	}
	if tok == nil {
		tok = tokenizer.NewEstimatorTokenizer(cfg.Model)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		caller:   caller,
		cfg:      cfg,
		calc:     calc,
		policies: policies,
		tok:      tok,
		logger:   logger.With(zap.String("component", "retention")),
	}
}

// Reply generates the next negotiation message.
func (a *Agent) Reply(ctx context.Context, in ReplyInput) (ReplyResult, error) {
	tier := ""
	if in.Customer != nil {
		tier = in.Customer.Tier
	}
	plan := a.calc.Calculate(tier, string(in.Reason))
	capped := len(in.OffersMade) >= a.cfg.OfferSoftCap

	system := a.buildPrompt(ctx, in, plan, capped)
	raw, err := llm.Complete(ctx, a.caller, a.cfg.Model, system, in.Message, a.cfg.Temperature)
	if err != nil {
		return ReplyResult{}, fmt.Errorf("retention reply: %w", err)
	}

	text, offerType, ok := ExtractOfferMarker(raw)
	res := ReplyResult{Text: text}
	if ok && !capped {
		offer := resolveOffer(plan, offerType)
		res.Offer = &offer
		a.logger.Info("offer presented",
			zap.String("type", string(offer.Type)),
			zap.Int("offers_made", len(in.OffersMade)+1))
	} else if ok {
		a.logger.Debug("offer marker ignored at soft cap", zap.String("type", string(offerType)))
	}
	return res, nil
}

func (a *Agent) buildPrompt(ctx context.Context, in ReplyInput, plan OfferPlan, capped bool) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\nCustomer information:\n")
	b.WriteString(in.Customer.Summary())
	b.WriteString("\n\nCancellation reason: ")
	b.WriteString(orDefault(string(in.Reason), "unknown"))
	b.WriteString("\n\nOffers already made this conversation:\n")
	if len(in.OffersMade) == 0 {
		b.WriteString("None yet")
	}
	for i, o := range in.OffersMade {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, o.Type, o.Description)
	}
	b.WriteString("\n\nAvailable offers:\n")
	if capped {
		b.WriteString("None. The offer limit is reached; do not propose anything new. Respect the customer's decision.")
	} else {
		for _, o := range plan.Offers {
			fmt.Fprintf(&b, "- type=%s: %s (%s)\n", o.Type, o.Description, o.Details)
		}
		fmt.Fprintf(&b, "Recommendation: %s\nAgent may authorize discounts up to %g%%.",
			plan.Recommendation, plan.Limits.MaxDiscountPercentage)
	}
	b.WriteString("\n\nConversation history:\n")
	b.WriteString(orDefault(in.History, "(none)"))
	b.WriteString("\n\nRelevant policy information:\n")
	b.WriteString(a.policyContext(ctx, in.Message))
	return b.String()
}

func (a *Agent) policyContext(ctx context.Context, query string) string {
	if a.policies == nil {
		return "Policy lookup unavailable."
	}
	hits := a.policies.SearchPolicies(ctx, query, a.cfg.PolicyTopK)
	if len(hits) == 0 {
		return "No relevant policy found."
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Text)
	}
	return tokenizer.Truncate(a.tok, strings.Join(parts, "\n\n"), a.cfg.PolicyMaxTokens)
}

// ExtractOfferMarker strips every [OFFER:<type>] marker from raw and
// returns the first marker's type.
func ExtractOfferMarker(raw string) (text string, offer types.OfferType, ok bool) {
	m := offerMarker.FindStringSubmatch(raw)
	text = strings.TrimSpace(offerMarker.ReplaceAllString(raw, ""))
	if m == nil {
		return text, "", false
	}
	return text, types.ParseOfferType(m[1]), true
}

func resolveOffer(plan OfferPlan, t types.OfferType) types.Offer {
	for _, o := range plan.Offers {
		if o.Type == t {
			return o.Offer
		}
	}
	return types.Offer{Type: t, Description: strings.ReplaceAll(string(t), "_", " ")}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
