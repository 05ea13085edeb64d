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

// ApprovalService is the application surface the approval endpoint depends on.
type ApprovalService interface {
	Approve(ctx context.Context, netsuiteID int64, approvedBy, buyerComment string) (*erp.PurchaseOrder, error)
}

// ApprovalHandler exposes the buyer approval endpoint.
type ApprovalHandler struct {
	BaseHandler
	service ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(service ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// ApproveRequest is the body of POST /purchase-orders/:id/approve.
type ApproveRequest struct {
	Comment string `json:"comment" binding:"omitempty,max=4000"`
}

// ApprovedOrderResponse summarizes a purchase order after a buyer approval
// pushed its pending vendor changes to NetSuite.
type ApprovedOrderResponse struct {
	NetSuiteID       int64      `json:"netsuite_id"`
	TranID           string     `json:"tran_id"`
	Status           string     `json:"status"`
	StatusName       string     `json:"status_name,omitempty"`
	VendorAction     string     `json:"vendor_action"`
	VesselName       *string    `json:"vessel_name,omitempty"`
	VesselNumber     *string    `json:"vessel_number,omitempty"`
	DeliveryETA      *time.Time `json:"delivery_eta,omitempty"`
	HasVendorUpdates bool       `json:"has_vendor_updates"`
	SyncedToNetSuite bool       `json:"synced_to_netsuite"`
}

// Approve pushes a purchase order's pending vendor changes to NetSuite and
// clears the pending flag.
//
// POST /api/v1/purchase-orders/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	netsuiteID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || netsuiteID <= 0 {
		h.BadRequest(c, "Purchase order id must be a positive integer")
		return
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid approval body")
		return
	}

	approvedBy := middleware.GetOperatorID(c)

	po, err := h.service.Approve(c.Request.Context(), netsuiteID, approvedBy, req.Comment)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ApprovedOrderResponse{
		NetSuiteID:       po.NetSuiteID,
		TranID:           po.TranID,
		Status:           po.Status,
		StatusName:       po.StatusName,
		VendorAction:     string(po.PendingVendorAction()),
		VesselName:       po.VesselName,
		VesselNumber:     po.VesselNumber,
		DeliveryETA:      po.DeliveryETA,
		HasVendorUpdates: po.HasVendorUpdates,
		SyncedToNetSuite: po.SyncedToNetSuite,
	})
}
