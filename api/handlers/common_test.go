package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/session"
	"github.com/BaSui01/retainflow/types"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, map[string]string{"k": "v"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `{"k":"v"}`, w.Body.String())
}

func TestWriteSuccess_CarriesRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(types.WithRequestID(r.Context(), "req-1"))
	w := httptest.NewRecorder()

	WriteSuccess(w, r, map[string]int{"n": 1})

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   types.ErrorCode
	}{
		{"not found", session.ErrNotFound, http.StatusNotFound, types.ErrConversationMissing},
		{"wrapped not found", fmt.Errorf("load: %w", session.ErrNotFound), http.StatusNotFound, types.ErrConversationMissing},
		{"ended", types.ErrConversationEnded, http.StatusConflict, types.ErrConversationClosed},
		{"turn failed", types.NewTurnFailedError(errors.New("secret upstream detail")), http.StatusBadGateway, types.ErrTurnFailed},
		{"invalid request", types.NewError(types.ErrInvalidRequest, "bad"), http.StatusBadRequest, types.ErrInvalidRequest},
		{"explicit status", types.NewError(types.ErrInvalidRequest, "big").WithHTTPStatus(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge, types.ErrInvalidRequest},
		{"plain error", errors.New("secret db password"), http.StatusInternalServerError, types.ErrInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, w.Code)
			body := w.Body.String()
			assert.NotContains(t, body, "secret")

			var resp Response
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.wantCode), resp.Error.Code)
		})
	}
}

func TestWriteError_TurnFailedIsRetryable(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, nil, types.NewTurnFailedError(errors.New("x")), nil)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Error.Retryable)
}

func TestDecodeJSONBody(t *testing.T) {
	type body struct {
		Message string `json:"message"`
	}

	t.Run("ok", func(t *testing.T) {
		var dst body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hi"}`))
		w := httptest.NewRecorder()
		require.NoError(t, DecodeJSONBody(w, r, &dst, nil))
		assert.Equal(t, "hi", dst.Message)
	})

	t.Run("unknown field", func(t *testing.T) {
		var dst body
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"msg":"hi"}`))
		w := httptest.NewRecorder()
		assert.Error(t, DecodeJSONBody(w, r, &dst, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty", func(t *testing.T) {
		var dst body
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		w := httptest.NewRecorder()
		assert.Error(t, DecodeJSONBody(w, r, &dst, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		var dst body
		big := `{"message":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		w := httptest.NewRecorder()
		assert.Error(t, DecodeJSONBody(w, r, &dst, nil))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestValidateContentType(t *testing.T) {
	for ct, want := range map[string]bool{
		"application/json":                true,
		"application/json; charset=utf-8": true,
		"text/plain":                      false,
		"":                                false,
	} {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if ct != "" {
			r.Header.Set("Content-Type", ct)
		}
		w := httptest.NewRecorder()
		assert.Equal(t, want, ValidateContentType(w, r, nil), ct)
		if !want {
			assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		}
	}
}

func TestResponseWriter_CapturesFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)
	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("x"))

	assert.Equal(t, http.StatusTeapot, rw.StatusCode)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, rec, rw.Unwrap())
}
