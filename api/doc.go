// Package api defines the request and response bodies of the RetainFlow HTTP
// and WebSocket API.
//
// # Endpoints
//
//	POST   /api/v1/conversations               start a conversation, returns the greeting
//	GET    /api/v1/conversations/{id}          conversation state and transcript
//	POST   /api/v1/conversations/{id}/messages submit one customer message
//	DELETE /api/v1/conversations/{id}          end the conversation
//	GET    /api/v1/customers/{id}/audit        audit entries for a customer
//	GET    /api/v1/ws                          WebSocket chat
//	GET    /health, /healthz, /ready, /version
//	GET    /metrics
//
// # Authentication
//
// When API keys are configured every /api route requires one of
//
//	X-API-Key: your-api-key
//	Authorization: Bearer <jwt>
//
// # Errors
//
// Failures use the envelope in handlers.Response with a machine-readable code:
// CONVERSATION_NOT_FOUND (404), CONVERSATION_ENDED (409), TURN_FAILED (502),
// INVALID_REQUEST (400), UNAUTHORIZED (401), RATE_LIMITED (429).
package api
