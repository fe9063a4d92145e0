// Package ctxkeys holds request-scoped values set by the HTTP middleware.
package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	principalKey contextKey = "principal"
	clientIPKey  contextKey = "client_ip"
)

// Principal identifies the authenticated caller.
type Principal struct {
	// Subject 为 JWT sub 或 API Key 指纹
	Subject string
	// Method 为 "jwt" 或 "api_key"
	Method string
}

// WithPrincipal 设置认证主体
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom 获取认证主体
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.Subject == "" {
		return Principal{}, false
	}
	return p, true
}

// WithClientIP 设置客户端 IP
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP 获取客户端 IP
func ClientIP(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(clientIPKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RateLimitKey returns the key a per-client limiter should bucket by:
// the principal when authenticated, otherwise the client IP.
func RateLimitKey(ctx context.Context) string {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.Method + ":" + p.Subject
	}
	if ip, ok := ClientIP(ctx); ok {
		return "ip:" + ip
	}
	return "anonymous"
}
