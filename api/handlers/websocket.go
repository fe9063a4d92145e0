package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/api"
	"github.com/BaSui01/retainflow/types"
	"github.com/BaSui01/retainflow/workflow"
)

// WSConfig WebSocket 配置
type WSConfig struct {
	// Accept 的 Origin 白名单，空表示仅同源
	OriginPatterns []string
	ReadLimit      int64
}

// WSHandler serves one conversation per WebSocket connection. The connection
// goroutine owns the conversation state.
type WSHandler struct {
	engine   ConversationEngine
	greeting string
	cfg      WSConfig
	logger   *zap.Logger
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(engine ConversationEngine, greeting string, cfg WSConfig, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 64 << 10
	}
	return &WSHandler{
		engine:   engine,
		greeting: greeting,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "ws_handler")),
	}
}

// ServeHTTP upgrades and runs the conversation loop until the client leaves
// or ends the conversation.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.cfg.OriginPatterns})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.cfg.ReadLimit)

	if err := h.serve(r.Context(), conn); err != nil {
		h.logger.Debug("websocket closed", zap.Error(err))
		return
	}
	conn.Close(websocket.StatusNormalClosure, "conversation ended")
}

func (h *WSHandler) serve(ctx context.Context, conn *websocket.Conn) error {
	state := h.engine.Start()
	if err := h.greet(ctx, conn, state); err != nil {
		return err
	}

	for {
		var in api.WSClientFrame
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return err
		}

		switch in.Type {
		case api.WSTypeMessage, "":
			msg := strings.TrimSpace(in.Content)
			if msg == "" {
				if err := h.writeError(ctx, conn, state.ID, types.NewError(types.ErrInvalidRequest, "message is required")); err != nil {
					return err
				}
				continue
			}
			next, res, err := h.engine.Advance(ctx, state, msg)
			if err != nil {
				if werr := h.writeError(ctx, conn, state.ID, err); werr != nil {
					return werr
				}
				continue
			}
			state = next
			turn := NewTurnResponse(state, res)
			if err := wsjson.Write(ctx, conn, api.WSServerFrame{
				Type:           api.WSTypeReply,
				ConversationID: state.ID,
				Content:        turn.Reply,
				Turn:           &turn,
			}); err != nil {
				return err
			}
			if state.Ended {
				if err := h.writeEnded(ctx, conn, state.ID); err != nil {
					return err
				}
			}

		case api.WSTypeReset:
			state = h.engine.Start()
			if err := h.greet(ctx, conn, state); err != nil {
				return err
			}

		case api.WSTypeEnd:
			state = h.engine.End(state)
			return h.writeEnded(ctx, conn, state.ID)

		default:
			if err := h.writeError(ctx, conn, state.ID, types.NewError(types.ErrInvalidRequest, "unknown frame type "+in.Type)); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) greet(ctx context.Context, conn *websocket.Conn, state workflow.ConversationState) error {
	h.logger.Info("conversation started", zap.String("conversation_id", state.ID), zap.String("transport", "websocket"))
	return wsjson.Write(ctx, conn, api.WSServerFrame{
		Type:           api.WSTypeGreeting,
		ConversationID: state.ID,
		Content:        h.greeting,
	})
}

func (h *WSHandler) writeEnded(ctx context.Context, conn *websocket.Conn, id string) error {
	return wsjson.Write(ctx, conn, api.WSServerFrame{Type: api.WSTypeEnded, ConversationID: id})
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, id string, err error) error {
	apiErr := ToAPIError(err)
	if code := apiErr.Code; code == types.ErrTurnFailed || code == types.ErrInternalError {
		h.logger.Warn("turn failed", zap.String("conversation_id", id), zap.Error(err))
	}
	frame := api.WSServerFrame{
		Type:           api.WSTypeError,
		ConversationID: id,
		Error: &api.ErrorDetail{
			Code:      string(apiErr.Code),
			Message:   apiErr.Message,
			Retryable: apiErr.Retryable,
		},
	}
	if errors.Is(err, types.ErrConversationEnded) {
		frame.Content = "Start a new conversation by sending a reset frame."
	}
	return wsjson.Write(ctx, conn, frame)
}
