package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyConversationID contextKey = "conversation_id"
	keyRequestID      contextKey = "request_id"
)

// WithConversationID adds conversation ID to context.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyConversationID, id)
}

// ConversationID extracts conversation ID from context.
func ConversationID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyConversationID).(string)
	return v, ok && v != ""
}

// WithRequestID adds request ID to context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID extracts request ID from context.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok && v != ""
}
