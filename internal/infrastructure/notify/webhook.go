package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/infrastructure/config"
)

// WebhookNotifier implements Notifier by POSTing JSON payloads to the
// configured buyer and vendor webhook endpoints. An empty URL disables that
// channel; delivery failures are returned but callers treat them as
// fire-and-forget.
type WebhookNotifier struct {
	buyerURL   string
	vendorURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a notifier from the notify configuration.
func NewWebhookNotifier(cfg *config.NotifyConfig, logger *zap.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		buyerURL:  cfg.BuyerWebhookURL,
		vendorURL: cfg.VendorWebhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("notify"),
	}
}

// vendorUpdatePayload alerts the buying team to a pending approval.
type vendorUpdatePayload struct {
	Event         string   `json:"event"`
	TranID        string   `json:"tran_id"`
	NetSuiteID    int64    `json:"netsuite_id"`
	VendorName    string   `json:"vendor_name"`
	ChangedFields []string `json:"changed_fields"`
}

// approvalPayload confirms a pushed approval to the vendor.
type approvalPayload struct {
	Event      string `json:"event"`
	TranID     string `json:"tran_id"`
	NetSuiteID int64  `json:"netsuite_id"`
}

// NotifyBuyerOfVendorUpdate alerts the buying team that a vendor edited a
// purchase order and approval is pending.
func (n *WebhookNotifier) NotifyBuyerOfVendorUpdate(ctx context.Context, po *erp.PurchaseOrder, changedFields []string) error {
	return n.post(ctx, n.buyerURL, vendorUpdatePayload{
		Event:         "purchase_order.vendor_updated",
		TranID:        po.TranID,
		NetSuiteID:    po.NetSuiteID,
		VendorName:    po.Vendor.Name,
		ChangedFields: changedFields,
	})
}

// NotifyVendorOfApproval confirms to the vendor that their edits were
// approved and pushed to the ERP.
func (n *WebhookNotifier) NotifyVendorOfApproval(ctx context.Context, po *erp.PurchaseOrder) error {
	return n.post(ctx, n.vendorURL, approvalPayload{
		Event:      "purchase_order.approved",
		TranID:     po.TranID,
		NetSuiteID: po.NetSuiteID,
	})
}

func (n *WebhookNotifier) post(ctx context.Context, url string, payload any) error {
	if url == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("webhook endpoint rejected notification",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("notify: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// Ensure WebhookNotifier implements Notifier
var _ erp.Notifier = (*WebhookNotifier)(nil)
