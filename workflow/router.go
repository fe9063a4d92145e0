package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/agent/processor"
	"github.com/BaSui01/retainflow/agent/retention"
	"github.com/BaSui01/retainflow/types"
)

const instrumentationName = "retainflow/workflow"

// defaultProcessorReason is audited when no cancellation reason was detected.
const defaultProcessorReason = "customer_requested"

// =============================================================================
// Collaborators
// =============================================================================

// CustomerIdentifier resolves the customer from message text.
type CustomerIdentifier interface {
	Identify(ctx context.Context, text string, current *types.CustomerRecord) (*types.CustomerRecord, error)
}

// IntentClassifier classifies a message. Unparseable model output yields
// types.DefaultIntent; only call failures are returned as errors.
type IntentClassifier interface {
	Classify(ctx context.Context, message, history string) (types.IntentResult, error)
}

// OrchestratorResponder writes the general-purpose reply.
type OrchestratorResponder interface {
	Reply(ctx context.Context, message, history string, customer *types.CustomerRecord, intent types.IntentResult) (string, error)
}

// RetentionNegotiator detects cancellation reasons and negotiates offers.
type RetentionNegotiator interface {
	DetectReason(ctx context.Context, message, history string) (types.CancellationReason, error)
	Reply(ctx context.Context, in retention.ReplyInput) (retention.ReplyResult, error)
}

// EscalationDecider decides when retention hands off to processing.
type EscalationDecider interface {
	ShouldEscalate(message string, offersCount int) bool
}

// AccountProcessor applies account actions and confirms them.
type AccountProcessor interface {
	Process(ctx context.Context, customerID string, action types.AccountAction, reason string) (*types.ActionResult, error)
	Reply(ctx context.Context, message, history string, customer *types.CustomerRecord, action types.AccountAction, result *types.ActionResult) (string, error)
}

// TurnRecorder receives router metrics. internal/metrics.Collector implements it.
type TurnRecorder interface {
	RecordTurn(node, status string, duration time.Duration)
	RecordTransition(from, to string)
	RecordEscalation(offersMade int)
}

// Deps are the router's collaborators. All are required except Metrics.
type Deps struct {
	Identifier   CustomerIdentifier
	Classifier   IntentClassifier
	Orchestrator OrchestratorResponder
	Retention    RetentionNegotiator
	Escalation   EscalationDecider
	Processor    AccountProcessor
	Metrics      TurnRecorder
}

// Options tune the router.
type Options struct {
	// HistoryWindow limits how many prior messages are rendered into prompts (0 = all).
	HistoryWindow int
	Now           func() time.Time
	NewID         func() string
	Logger        *zap.Logger
}

// TurnResult describes what one Advance produced.
type TurnResult struct {
	// Replies are the agent messages appended this turn, in order.
	Replies []types.Message
	// Agent is the node that produced the last reply.
	Agent Node
	// HandedOff is set when retention escalated to processing without replying.
	HandedOff bool
	Intent    *types.IntentResult
	Ended     bool
}

// Reply joins the turn's replies.
func (r TurnResult) Reply() string {
	parts := make([]string, 0, len(r.Replies))
	for _, m := range r.Replies {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// Router
// =============================================================================

// Router is the conversation state machine. It holds no conversation data
// and is safe for concurrent use across conversations.
type Router struct {
	deps    Deps
	opts    Options
	tracer  trace.Tracer
	metrics TurnRecorder
	logger  *zap.Logger
}

// NewRouter validates deps and creates a router.
func NewRouter(deps Deps, opts Options) (*Router, error) {
	var missing []string
	if deps.Identifier == nil {
		missing = append(missing, "identifier")
	}
	if deps.Classifier == nil {
		missing = append(missing, "classifier")
	}
	if deps.Orchestrator == nil {
		missing = append(missing, "orchestrator")
	}
	if deps.Retention == nil {
		missing = append(missing, "retention")
	}
	if deps.Escalation == nil {
		missing = append(missing, "escalation")
	}
	if deps.Processor == nil {
		missing = append(missing, "processor")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("workflow: missing dependencies: %s", strings.Join(missing, ", "))
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = noopRecorder{}
	}
	return &Router{
		deps:    deps,
		opts:    opts,
		tracer:  otel.Tracer(instrumentationName),
		metrics: m,
		logger:  opts.Logger.With(zap.String("component", "router")),
	}, nil
}

// Start creates a fresh conversation.
func (r *Router) Start() ConversationState {
	return ConversationState{
		ID:   r.opts.NewID(),
		Node: NodeOrchestrator,
	}
}

// Reset discards the conversation and starts a new one.
func (r *Router) Reset() ConversationState { return r.Start() }

// End closes the conversation on the caller's request.
func (r *Router) End(state ConversationState) ConversationState {
	out := state.Clone()
	if out.Node != NodeEnded {
		r.metrics.RecordTransition(string(out.Node), string(NodeEnded))
	}
	out.Node = NodeEnded
	out.Ended = true
	return out
}

// Advance applies one customer message. On error the returned state is the
// input state, unchanged. A closed conversation fails with
// types.ErrConversationEnded.
func (r *Router) Advance(ctx context.Context, state ConversationState, message string) (ConversationState, TurnResult, error) {
	if state.Closed() {
		return state, TurnResult{Agent: state.LastAgent, Ended: true}, types.ErrConversationEnded
	}
	if !state.Node.Valid() {
		return state, TurnResult{}, types.NewError(types.ErrInternalError,
			fmt.Sprintf("conversation %s is at unknown node %q", state.ID, state.Node))
	}

	start := r.opts.Now()
	from := state.Node
	ctx = types.WithConversationID(ctx, state.ID)
	ctx, span := r.tracer.Start(ctx, "workflow.advance", trace.WithAttributes(
		attribute.String("conversation.id", state.ID),
		attribute.String("workflow.node", string(from)),
		attribute.Int("workflow.turn", state.TurnCount+1),
	))
	defer span.End()

	next := state.Clone()
	next.Transcript = append(next.Transcript, types.Message{
		Role:      types.RoleCustomer,
		Content:   message,
		Timestamp: r.opts.Now(),
	})

	var (
		res TurnResult
		err error
	)
	switch from {
	case NodeOrchestrator:
		res, err = r.orchestrate(ctx, &next, message)
	case NodeRetention:
		res, err = r.retain(ctx, &next, message)
	case NodeProcessor:
		res, err = r.process(ctx, &next, message)
	case NodeExternal:
		res = r.refer(&next)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordTurn(string(from), "error", r.opts.Now().Sub(start))
		r.logger.Warn("turn failed",
			zap.String("conversation_id", state.ID),
			zap.String("node", string(from)),
			zap.Error(err))
		return state, TurnResult{}, wrapTurnError(err)
	}

	next.TurnCount++
	if len(res.Replies) > 0 {
		next.LastAgent = res.Agent
	}
	res.Intent = next.Intent
	res.Ended = next.Ended
	if next.Node != from {
		r.metrics.RecordTransition(string(from), string(next.Node))
	}
	r.metrics.RecordTurn(string(from), "ok", r.opts.Now().Sub(start))
	span.SetAttributes(
		attribute.String("workflow.next_node", string(next.Node)),
		attribute.Bool("workflow.ended", next.Ended),
	)
	r.logger.Debug("turn completed",
		zap.String("conversation_id", next.ID),
		zap.String("from", string(from)),
		zap.String("to", string(next.Node)),
		zap.Int("offers_made", len(next.OffersMade)),
		zap.Bool("ended", next.Ended))
	return next, res, nil
}

// orchestrate identifies, classifies, replies and routes.
func (r *Router) orchestrate(ctx context.Context, s *ConversationState, message string) (TurnResult, error) {
	if !s.Identified() {
		rec, err := r.deps.Identifier.Identify(ctx, message, s.Customer)
		if err != nil {
			return TurnResult{}, fmt.Errorf("identify customer: %w", err)
		}
		if rec != nil && rec.Found {
			s.Customer = rec
		}
	}

	history := r.history(s)
	intent, err := r.deps.Classifier.Classify(ctx, message, history)
	if err != nil {
		return TurnResult{}, fmt.Errorf("classify intent: %w", err)
	}
	s.Intent = &intent

	reply, err := r.deps.Orchestrator.Reply(ctx, message, history, s.Customer, intent)
	if err != nil {
		return TurnResult{}, fmt.Errorf("orchestrator reply: %w", err)
	}
	res := TurnResult{Agent: NodeOrchestrator}
	r.appendReply(s, &res, NodeOrchestrator, reply)

	s.Node = NextNode(intent.Intent)
	if s.Node == NodeExternal {
		// 外部转接在同一轮内完成
		ext := r.refer(s)
		res.Replies = append(res.Replies, ext.Replies...)
		res.Agent = ext.Agent
	}
	return res, nil
}

// retain runs one retention turn.
func (r *Router) retain(ctx context.Context, s *ConversationState, message string) (TurnResult, error) {
	if r.deps.Escalation.ShouldEscalate(message, len(s.OffersMade)) {
		r.metrics.RecordEscalation(len(s.OffersMade))
		r.logger.Info("escalating to processor",
			zap.String("conversation_id", s.ID),
			zap.Int("offers_made", len(s.OffersMade)))
		s.Node = NodeProcessor
		return TurnResult{Agent: NodeRetention, HandedOff: true}, nil
	}

	history := r.history(s)
	if s.CancellationReason == "" {
		reason, err := r.deps.Retention.DetectReason(ctx, message, history)
		if err != nil {
			return TurnResult{}, fmt.Errorf("detect cancellation reason: %w", err)
		}
		s.CancellationReason = reason
	}

	out, err := r.deps.Retention.Reply(ctx, retention.ReplyInput{
		Message:    message,
		History:    history,
		Customer:   s.Customer,
		OffersMade: s.OffersMade,
		Reason:     s.CancellationReason,
	})
	if err != nil {
		return TurnResult{}, fmt.Errorf("retention reply: %w", err)
	}
	if out.Offer != nil {
		s.OffersMade = append(s.OffersMade, *out.Offer)
	}
	res := TurnResult{Agent: NodeRetention}
	r.appendReply(s, &res, NodeRetention, out.Text)
	return res, nil
}

// process cancels the account (when the customer is known) and ends the
// conversation. Once the account action is recorded the turn cannot fail:
// a reply failure falls back to the canned confirmation.
func (r *Router) process(ctx context.Context, s *ConversationState, message string) (TurnResult, error) {
	var result *types.ActionResult
	if s.Customer != nil && s.Customer.CustomerID != "" {
		reason := string(s.CancellationReason)
		if reason == "" {
			reason = defaultProcessorReason
		}
		var err error
		result, err = r.deps.Processor.Process(ctx, s.Customer.CustomerID, types.ActionCancel, reason)
		if err != nil {
			return TurnResult{}, fmt.Errorf("process cancellation: %w", err)
		}
	} else {
		r.logger.Warn("processing without identified customer, no account action taken",
			zap.String("conversation_id", s.ID))
	}

	reply, err := r.deps.Processor.Reply(ctx, message, r.history(s), s.Customer, types.ActionCancel, result)
	if err != nil {
		if result == nil {
			return TurnResult{}, fmt.Errorf("processor reply: %w", err)
		}
		r.logger.Warn("processor reply failed, using canned confirmation",
			zap.String("conversation_id", s.ID),
			zap.Error(err))
		reply = processor.Confirmation(s.Customer, types.ActionCancel)
	}
	res := TurnResult{Agent: NodeProcessor}
	r.appendReply(s, &res, NodeProcessor, reply)
	s.Ended = true
	return res, nil
}

// refer appends the referral for the current intent and ends the conversation.
func (r *Router) refer(s *ConversationState) TurnResult {
	intent := types.IntentGeneral
	if s.Intent != nil {
		intent = s.Intent.Intent
	}
	res := TurnResult{Agent: NodeExternal}
	r.appendReply(s, &res, NodeExternal, ReferralMessage(intent))
	s.Node = NodeExternal
	s.Ended = true
	return res
}

func (r *Router) appendReply(s *ConversationState, res *TurnResult, node Node, text string) {
	msg := types.Message{
		Role:      types.RoleAgent,
		Content:   text,
		Agent:     string(node),
		Timestamp: r.opts.Now(),
	}
	s.Transcript = append(s.Transcript, msg)
	res.Replies = append(res.Replies, msg)
}

func (r *Router) history(s *ConversationState) string {
	return types.FormatHistory(s.history(), r.opts.HistoryWindow)
}

// wrapTurnError keeps caller errors and context errors recognizable and
// wraps everything else as TURN_FAILED.
func wrapTurnError(err error) error {
	if errors.Is(err, types.ErrInvalidAction) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return types.NewTurnFailedError(err)
}

type noopRecorder struct{}

func (noopRecorder) RecordTurn(string, string, time.Duration) {}
func (noopRecorder) RecordTransition(string, string)          {}
func (noopRecorder) RecordEscalation(int)                     {}
