package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/api"
	"github.com/BaSui01/retainflow/types"
)

// AuditReader lists a customer's audit entries. audit.GormSink implements it.
type AuditReader interface {
	ListByCustomer(ctx context.Context, customerID string) ([]types.AuditEntry, error)
}

// AuditHandler serves GET /api/v1/customers/{id}/audit.
type AuditHandler struct {
	reader AuditReader
	logger *zap.Logger
}

// NewAuditHandler 创建审计查询处理器
func NewAuditHandler(reader AuditReader, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{reader: reader, logger: logger}
}

// HandleList 按客户列出审计记录
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "customer id is required", h.logger)
		return
	}
	entries, err := h.reader.ListByCustomer(r.Context(), id)
	if err != nil {
		WriteError(w, r, types.NewError(types.ErrStoreUnavailable, "audit log unavailable").WithCause(err), h.logger)
		return
	}
	if entries == nil {
		entries = []types.AuditEntry{}
	}
	WriteSuccess(w, r, api.AuditListResponse{CustomerID: id, Entries: entries})
}
