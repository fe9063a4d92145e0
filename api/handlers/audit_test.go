package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/retainflow/api"
	"github.com/BaSui01/retainflow/types"
)

type fakeAuditReader struct {
	entries map[string][]types.AuditEntry
	err     error
}

func (f *fakeAuditReader) ListByCustomer(_ context.Context, id string) ([]types.AuditEntry, error) {
	return f.entries[id], f.err
}

func newAuditServer(t *testing.T, reader AuditReader) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/customers/{id}/audit", NewAuditHandler(reader, nil).HandleList)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuditHandler_List(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := newAuditServer(t, &fakeAuditReader{entries: map[string][]types.AuditEntry{
		"CUST_001": {{ID: "a1", CustomerID: "CUST_001", Action: types.ActionCancel, Reason: "cost", Status: "completed", Timestamp: ts}},
	}})

	code, env := doJSON[api.AuditListResponse](t, http.MethodGet, srv.URL+"/api/v1/customers/CUST_001/audit", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Entries, 1)
	assert.Equal(t, "a1", env.Data.Entries[0].ID)
	assert.True(t, ts.Equal(env.Data.Entries[0].Timestamp))

	code, env = doJSON[api.AuditListResponse](t, http.MethodGet, srv.URL+"/api/v1/customers/CUST_404/audit", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, env.Data.Entries)
	assert.Empty(t, env.Data.Entries)
}

func TestAuditHandler_StoreError(t *testing.T) {
	srv := newAuditServer(t, &fakeAuditReader{err: errors.New("db gone")})

	code, env := doJSON[any](t, http.MethodGet, srv.URL+"/api/v1/customers/CUST_001/audit", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, string(types.ErrStoreUnavailable), env.Error.Code)
}
