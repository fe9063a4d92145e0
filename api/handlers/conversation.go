package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/api"
	"github.com/BaSui01/retainflow/session"
	"github.com/BaSui01/retainflow/types"
	"github.com/BaSui01/retainflow/workflow"
)

// ConversationEngine is the part of workflow.Router the API drives.
type ConversationEngine interface {
	Start() workflow.ConversationState
	Advance(ctx context.Context, state workflow.ConversationState, message string) (workflow.ConversationState, workflow.TurnResult, error)
	End(state workflow.ConversationState) workflow.ConversationState
}

// =============================================================================
// 会话接口 Handler
// =============================================================================

// ConversationHandler serves the conversation REST endpoints.
type ConversationHandler struct {
	engine   ConversationEngine
	sessions *session.Manager
	greeting string
	logger   *zap.Logger
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(engine ConversationEngine, sessions *session.Manager, greeting string, logger *zap.Logger) *ConversationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationHandler{
		engine:   engine,
		sessions: sessions,
		greeting: greeting,
		logger:   logger.With(zap.String("component", "conversation_handler")),
	}
}

// HandleStart POST /api/v1/conversations
func (h *ConversationHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	state := h.engine.Start()
	if err := h.sessions.Create(r.Context(), state); err != nil {
		WriteError(w, r, types.NewError(types.ErrStoreUnavailable, "conversation could not be stored").WithCause(err), h.logger)
		return
	}
	h.logger.Info("conversation started", zap.String("conversation_id", state.ID))
	WriteSuccessStatus(w, r, http.StatusCreated, api.StartConversationResponse{
		ConversationID: state.ID,
		Greeting:       h.greeting,
		Node:           string(state.Node),
		CreatedAt:      time.Now(),
	})
}

// HandleMessage POST /api/v1/conversations/{id}/messages
func (h *ConversationHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req api.SendMessageRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "message is required", h.logger)
		return
	}

	id := r.PathValue("id")
	var turn workflow.TurnResult
	state, err := h.sessions.WithConversation(r.Context(), id, func(s workflow.ConversationState) (workflow.ConversationState, error) {
		next, res, err := h.engine.Advance(r.Context(), s, msg)
		turn = res
		return next, err
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, NewTurnResponse(state, turn))
}

// HandleGet GET /api/v1/conversations/{id}
func (h *ConversationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, NewConversationView(state))
}

// HandleEnd DELETE /api/v1/conversations/{id}. Ending twice is not an error.
func (h *ConversationHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.WithConversation(r.Context(), r.PathValue("id"), func(s workflow.ConversationState) (workflow.ConversationState, error) {
		return h.engine.End(s), nil
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	h.logger.Info("conversation ended by client", zap.String("conversation_id", state.ID))
	WriteSuccess(w, r, NewConversationView(state))
}

// =============================================================================
// 转换
// =============================================================================

// NewTurnResponse builds the API view of one turn.
func NewTurnResponse(state workflow.ConversationState, res workflow.TurnResult) api.TurnResponse {
	out := api.TurnResponse{
		ConversationID: state.ID,
		Reply:          res.Reply(),
		Replies:        res.Replies,
		HandedOff:      res.HandedOff,
		Intent:         res.Intent,
		Node:           string(state.Node),
		OffersMade:     len(state.OffersMade),
		Ended:          res.Ended,
	}
	if out.Replies == nil {
		out.Replies = []types.Message{}
	}
	if res.Agent != "" {
		out.Agent = string(res.Agent)
		out.AgentName = res.Agent.DisplayName()
	}
	return out
}

// NewConversationView builds the API view of a conversation.
func NewConversationView(state workflow.ConversationState) api.ConversationView {
	v := api.ConversationView{
		ID:                 state.ID,
		Node:               string(state.Node),
		Ended:              state.Ended,
		TurnCount:          state.TurnCount,
		Intent:             state.Intent,
		CancellationReason: string(state.CancellationReason),
		OffersMade:         state.OffersMade,
		Transcript:         state.Transcript,
	}
	if v.OffersMade == nil {
		v.OffersMade = []types.Offer{}
	}
	if v.Transcript == nil {
		v.Transcript = []types.Message{}
	}
	if c := state.Customer; c != nil && c.Found {
		v.Customer = &api.CustomerView{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Email:      c.Email,
			PlanType:   c.PlanType,
			Tier:       c.Tier,
			Status:     c.Status,
		}
	}
	return v
}
