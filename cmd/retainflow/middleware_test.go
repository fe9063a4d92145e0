package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/api/handlers"
	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/internal/ctxkeys"
	"github.com/BaSui01/retainflow/types"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *handlers.ErrorInfo {
	t.Helper()
	var resp handlers.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return resp.Error
}

func TestOTelTracing_RecordsDuration(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		_ = mp.Shutdown(context.Background())
	})

	h := Chain(okHandler(), OTelTracing())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/conversations/abc", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "retainflow/http", rm.ScopeMetrics[0].Scope.Name)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "http.server.request.duration", m.Name)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	route, _ := hist.DataPoints[0].Attributes.Value("http.route")
	assert.Equal(t, "/api/v1/conversations/:id", route.AsString())
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = types.RequestID(r.Context())
	}), SecurityHeaders(), RequestID())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}), Recovery(zap.NewNop()), RequestID())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, string(types.ErrInternalError), e.Code)
	assert.NotContains(t, e.Message, "kaboom")
}

func TestClientIP(t *testing.T) {
	var ip string
	h := ClientIP()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _ = ctxkeys.ClientIP(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "10.1.2.3", ip)
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/health":                                      "/health",
		"/api/v1/conversations":                        "/api/v1/conversations",
		"/api/v1/conversations/3f2a9c1e-aaaa":          "/api/v1/conversations/:id",
		"/api/v1/conversations/3f2a9c1e-aaaa/messages": "/api/v1/conversations/:id/messages",
		"/api/v1/customers/CUST_001/audit":             "/api/v1/customers/:id/audit",
		"/api/v1/ws":                                   "/api/v1/ws",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)

	r = httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	r.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// =============================================================================
// 🔐 Auth
// =============================================================================

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authProbe(mw Middleware) (http.Handler, *ctxkeys.Principal) {
	var got ctxkeys.Principal
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ctxkeys.PrincipalFrom(r.Context())
	})), &got
}

func TestAuth_DisabledWithoutCredentials(t *testing.T) {
	w := httptest.NewRecorder()
	Auth(config.AuthConfig{}, nil, zap.NewNop())(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_APIKey(t *testing.T) {
	cfg := config.AuthConfig{APIKeys: []string{"k1", "k2"}}
	h, got := authProbe(Auth(cfg, healthPaths, zap.NewNop()))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/x", nil)
	r.Header.Set("X-API-Key", "k2")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "api_key", got.Method)
	assert.Equal(t, keyFingerprint("k2"), got.Subject)
	assert.NotContains(t, got.Subject, "k2")

	r = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/x", nil)
	r.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(types.ErrUnauthorized), decodeError(t, w).Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_QueryAPIKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/ws?api_key=k1", nil)

	w := httptest.NewRecorder()
	Auth(config.AuthConfig{APIKeys: []string{"k1"}}, nil, zap.NewNop())(okHandler()).ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	Auth(config.AuthConfig{APIKeys: []string{"k1"}, AllowQueryAPIKey: true}, nil, zap.NewNop())(okHandler()).ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_JWT(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "s3cret", JWTIssuer: "retainflow"}
	h, got := authProbe(Auth(cfg, nil, zap.NewNop()))

	call := func(token string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}
	exp := time.Now().Add(time.Hour).Unix()

	assert.Equal(t, http.StatusOK, call(signToken(t, "s3cret", jwt.MapClaims{"sub": "agent-7", "iss": "retainflow", "exp": exp})))
	assert.Equal(t, ctxkeys.Principal{Subject: "agent-7", Method: "jwt"}, *got)

	assert.Equal(t, http.StatusUnauthorized, call(signToken(t, "other", jwt.MapClaims{"sub": "a", "iss": "retainflow", "exp": exp})), "wrong secret")
	assert.Equal(t, http.StatusUnauthorized, call(signToken(t, "s3cret", jwt.MapClaims{"sub": "a", "iss": "someone", "exp": exp})), "wrong issuer")
	assert.Equal(t, http.StatusUnauthorized, call(signToken(t, "s3cret", jwt.MapClaims{"sub": "a", "iss": "retainflow"})), "no expiry")
	assert.Equal(t, http.StatusUnauthorized, call(signToken(t, "s3cret", jwt.MapClaims{"sub": "a", "iss": "retainflow", "exp": time.Now().Add(-time.Minute).Unix()})), "expired")
	assert.Equal(t, http.StatusUnauthorized, call(signToken(t, "s3cret", jwt.MapClaims{"iss": "retainflow", "exp": exp})), "no subject")
	assert.Equal(t, http.StatusUnauthorized, call("not-a-token"))
}

// =============================================================================
// 🚦 RateLimiter
// =============================================================================

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := Chain(okHandler(), ClientIP(), RateLimiter(ctx, 1, 2, zap.NewNop()))
	call := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:2").Code)
	w := call("10.0.0.1:3")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, string(types.ErrRateLimited), decodeError(t, w).Code)

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1").Code, "separate bucket per client")
}

func TestRateLimiter_KeyedByPrincipal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := Chain(okHandler(),
		ClientIP(),
		Auth(config.AuthConfig{APIKeys: []string{"a", "b"}}, nil, zap.NewNop()),
		RateLimiter(ctx, 1, 1, zap.NewNop()),
	)
	call := func(key string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
		r.RemoteAddr = "10.0.0.9:1"
		r.Header.Set("X-API-Key", key)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("a"))
	assert.Equal(t, http.StatusTooManyRequests, call("a"))
	assert.Equal(t, http.StatusOK, call("b"), "same IP, different principal")
}

func TestRateLimiter_Disabled(t *testing.T) {
	h := RateLimiter(context.Background(), 0, 0, zap.NewNop())(okHandler())
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
