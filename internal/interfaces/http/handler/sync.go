package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/interfaces/http/dto"
	"github.com/vendorportal/backend/internal/interfaces/http/middleware"
)

// triggeredByWebhook marks runs started by the ERP-side webhook rather than
// an authenticated operator.
const triggeredByWebhook = "webhook"

// SyncService is the application surface the sync endpoints depend on.
type SyncService interface {
	SyncAccounts(ctx context.Context, triggeredBy string) (*erp.SyncResult, error)
	SyncItems(ctx context.Context, triggeredBy string) (*erp.SyncResult, error)
	SyncPurchaseOrders(ctx context.Context, triggeredBy string) (*erp.SyncResult, error)
	SyncPurchaseOrder(ctx context.Context, netsuiteID int64, triggeredBy string) (*erp.SyncResult, error)
}

// SyncHandler exposes the sync trigger and audit endpoints.
type SyncHandler struct {
	BaseHandler
	service  SyncService
	syncLogs erp.SyncLogRepository
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService, syncLogs erp.SyncLogRepository) *SyncHandler {
	return &SyncHandler{service: service, syncLogs: syncLogs}
}

// TriggerSyncRequest is the body of POST /sync.
type TriggerSyncRequest struct {
	Type string `json:"type" binding:"required"`
}

// SyncResultResponse reports the outcome of a finished sync run.
type SyncResultResponse struct {
	Type             string `json:"type"`
	Status           string `json:"status"`
	RecordsProcessed int    `json:"records_processed"`
	RecordsFailed    int    `json:"records_failed"`
	Message          string `json:"message,omitempty"`
}

func newSyncResultResponse(result *erp.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		Type:             result.Type.String(),
		Status:           result.Status.String(),
		RecordsProcessed: result.RecordsProcessed,
		RecordsFailed:    result.RecordsFailed,
		Message:          result.Message,
	}
}

// TriggerSync starts a full sync of the requested entity type and blocks
// until the run finishes.
//
// POST /api/v1/sync
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Request body must carry a sync type")
		return
	}

	syncType := erp.SyncType(req.Type)
	if !syncType.IsValid() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput,
			"Sync type must be one of: accounts, items, purchase-orders")
		return
	}

	triggeredBy := middleware.GetOperatorID(c)

	var (
		result *erp.SyncResult
		err    error
	)
	ctx := c.Request.Context()
	switch syncType {
	case erp.SyncTypeAccounts:
		result, err = h.service.SyncAccounts(ctx, triggeredBy)
	case erp.SyncTypeItems:
		result, err = h.service.SyncItems(ctx, triggeredBy)
	case erp.SyncTypePurchaseOrders:
		result, err = h.service.SyncPurchaseOrders(ctx, triggeredBy)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newSyncResultResponse(result))
}

// SyncSinglePurchaseOrder re-syncs one purchase order by its NetSuite
// internal id. Reached by operators and by the ERP webhook.
//
// POST /api/v1/sync/purchase-orders/:id
func (h *SyncHandler) SyncSinglePurchaseOrder(c *gin.Context) {
	netsuiteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || netsuiteID <= 0 {
		h.BadRequest(c, "Purchase order id must be a positive integer")
		return
	}

	triggeredBy := middleware.GetOperatorID(c)
	if triggeredBy == "" {
		triggeredBy = triggeredByWebhook
	}

	result, err := h.service.SyncPurchaseOrder(c.Request.Context(), netsuiteID, triggeredBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newSyncResultResponse(result))
}

// ListSyncLogsRequest holds the query parameters of GET /sync/logs.
type ListSyncLogsRequest struct {
	dto.ListRequest
	Type   string `form:"type" binding:"omitempty"`
	Status string `form:"status" binding:"omitempty"`
}

// SyncLogResponse is one row of the sync audit trail.
type SyncLogResponse struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Environment      string     `json:"environment"`
	TriggeredBy      string     `json:"triggered_by"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	RecordsProcessed int        `json:"records_processed"`
	RecordsFailed    int        `json:"records_failed"`
	Error            string     `json:"error,omitempty"`
}

// ListSyncLogs returns the sync history, newest first.
//
// GET /api/v1/sync/logs
func (h *SyncHandler) ListSyncLogs(c *gin.Context) {
	var req ListSyncLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid pagination parameters")
		return
	}
	req.Normalize()

	filter := erp.SyncLogFilter{Page: req.Page, PageSize: req.PageSize}
	if req.Type != "" {
		syncType := erp.SyncType(req.Type)
		if !syncType.IsValid() && syncType != erp.SyncTypeSinglePurchaseOrder {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Unknown sync type filter")
			return
		}
		filter.Type = &syncType
	}
	if req.Status != "" {
		status := erp.SyncStatus(req.Status)
		switch status {
		case erp.SyncStatusRunning, erp.SyncStatusSuccess, erp.SyncStatusPartial, erp.SyncStatusFailed:
			filter.Status = &status
		default:
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Unknown sync status filter")
			return
		}
	}

	entries, total, err := h.syncLogs.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logs := make([]SyncLogResponse, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, SyncLogResponse{
			ID:               e.ID.String(),
			Type:             e.Type.String(),
			Status:           e.Status.String(),
			Environment:      e.Environment,
			TriggeredBy:      e.TriggeredBy,
			StartedAt:        e.StartedAt,
			FinishedAt:       e.FinishedAt,
			RecordsProcessed: e.RecordsProcessed,
			RecordsFailed:    e.RecordsFailed,
			Error:            e.Error,
		})
	}

	h.SuccessWithMeta(c, logs, total, req.Page, req.PageSize)
}
