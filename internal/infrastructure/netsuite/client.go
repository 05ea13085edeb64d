package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the ERP (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxLoggedBody caps response bodies quoted in audit logs.
const maxLoggedBody = 512

// retryBaseDelay is the first backoff step; each retry doubles it.
const retryBaseDelay = 500 * time.Millisecond

// retryMaxDelay caps the backoff between attempts.
const retryMaxDelay = 8 * time.Second

// Client is the signed, rate-limited NetSuite REST connection. It implements
// erp.Gateway: every call acquires a limiter slot, signs the request with a
// fresh nonce and classifies failures into the domain error taxonomy.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	signer     *Signer
	limiter    *RequestLimiter
	mapper     *Mapper
	logger     *zap.Logger
	metrics    *telemetry.SyncMetrics
}

// NewClient creates a client for the given account configuration.
func NewClient(cfg *Config, limiter *RequestLimiter, mapper *Mapper, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		signer:  NewSigner(cfg),
		limiter: limiter,
		mapper:  mapper,
		logger:  logger.Named("netsuite"),
	}, nil
}

// WithMetrics attaches the sync instrument set. Optional; without it the
// client only logs.
func (c *Client) WithMetrics(metrics *telemetry.SyncMetrics) *Client {
	c.metrics = metrics
	return c
}

// Environment returns "production" or "sandbox" for audit logging.
func (c *Client) Environment() string {
	return c.cfg.Environment
}

// ---------------------------------------------------------------------------
// Listing Operations
// ---------------------------------------------------------------------------

// ListVendors returns one page of vendor records.
func (c *Client) ListVendors(ctx context.Context, offset, limit int) (*erp.AccountPage, error) {
	query := pageQuery(offset, limit)

	body, err := c.doRequest(ctx, "list_vendors", http.MethodGet, "/vendor", query, nil)
	if err != nil {
		return nil, err
	}

	var resp vendorListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: vendor list: %v", erp.ErrMapping, err)
	}

	page := &erp.AccountPage{
		Accounts:   make([]erp.Account, 0, len(resp.Items)),
		HasMore:    resp.HasMore,
		NextOffset: resp.Offset + len(resp.Items),
		Total:      resp.TotalResults,
	}
	for i := range resp.Items {
		account, err := c.mapper.AccountFromWire(&resp.Items[i])
		if err != nil {
			page.Failures = append(page.Failures, erp.RecordError{RecordID: resp.Items[i].ID, Err: err})
			continue
		}
		page.Accounts = append(page.Accounts, *account)
	}
	return page, nil
}

// ListItems returns one page of inventory item records.
func (c *Client) ListItems(ctx context.Context, offset, limit int) (*erp.ItemPage, error) {
	query := pageQuery(offset, limit)

	body, err := c.doRequest(ctx, "list_items", http.MethodGet, "/inventoryItem", query, nil)
	if err != nil {
		return nil, err
	}

	var resp itemListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: item list: %v", erp.ErrMapping, err)
	}

	page := &erp.ItemPage{
		Items:      make([]erp.Item, 0, len(resp.Items)),
		HasMore:    resp.HasMore,
		NextOffset: resp.Offset + len(resp.Items),
		Total:      resp.TotalResults,
	}
	for i := range resp.Items {
		item, err := c.mapper.ItemFromWire(&resp.Items[i])
		if err != nil {
			page.Failures = append(page.Failures, erp.RecordError{RecordID: resp.Items[i].ID, Err: err})
			continue
		}
		page.Items = append(page.Items, *item)
	}
	return page, nil
}

// ListPurchaseOrders returns one page of purchase orders restricted to the
// given status codes.
func (c *Client) ListPurchaseOrders(ctx context.Context, statuses []string, offset, limit int) (*erp.PurchaseOrderPage, error) {
	query := pageQuery(offset, limit)
	query.Set("expandSubResources", "true")
	if len(statuses) > 0 {
		query.Set("q", statusFilter(statuses))
	}

	body, err := c.doRequest(ctx, "list_purchase_orders", http.MethodGet, "/purchaseOrder", query, nil)
	if err != nil {
		return nil, err
	}

	var resp poListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: purchase order list: %v", erp.ErrMapping, err)
	}

	page := &erp.PurchaseOrderPage{
		Orders:     make([]erp.PurchaseOrder, 0, len(resp.Items)),
		HasMore:    resp.HasMore,
		NextOffset: resp.Offset + len(resp.Items),
		Total:      resp.TotalResults,
	}
	for i := range resp.Items {
		po, err := c.mapper.PurchaseOrderFromWire(&resp.Items[i])
		if err != nil {
			page.Failures = append(page.Failures, erp.RecordError{RecordID: resp.Items[i].ID, Err: err})
			continue
		}
		page.Orders = append(page.Orders, *po)
	}
	return page, nil
}

// ---------------------------------------------------------------------------
// Single Record Operations
// ---------------------------------------------------------------------------

// GetPurchaseOrder pulls a single purchase order with expanded lines.
func (c *Client) GetPurchaseOrder(ctx context.Context, netsuiteID int64) (*erp.PurchaseOrder, error) {
	query := url.Values{}
	query.Set("expandSubResources", "true")

	path := "/purchaseOrder/" + strconv.FormatInt(netsuiteID, 10)
	body, err := c.doRequest(ctx, "get_purchase_order", http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var rec purchaseOrderRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("%w: purchase order %d: %v", erp.ErrMapping, netsuiteID, err)
	}

	return c.mapper.PurchaseOrderFromWire(&rec)
}

// UpdatePurchaseOrder pushes a minimal patch of vendor-edited fields. An
// empty patch is a no-op.
func (c *Client) UpdatePurchaseOrder(ctx context.Context, netsuiteID int64, patch erp.PurchaseOrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	path := "/purchaseOrder/" + strconv.FormatInt(netsuiteID, 10)
	_, err := c.doRequest(ctx, "update_purchase_order", http.MethodPatch, path, nil, c.mapper.PatchToWire(patch))
	return err
}

// CreateMessage appends a message to the ERP-side conversation thread.
func (c *Client) CreateMessage(ctx context.Context, msg *erp.OutboundMessage) error {
	_, err := c.doRequest(ctx, "create_message", http.MethodPost, "/message", nil, c.mapper.MessageToWire(msg))
	return err
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// doRequest performs one logical API call with rate limiting, signing and a
// bounded retry loop. The Authorization header is rebuilt on every attempt
// so each retry carries a fresh nonce and timestamp.
func (c *Client) doRequest(ctx context.Context, operation, method, path string, query url.Values, body any) ([]byte, error) {
	requestURL, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("netsuite: bad request url: %w", err)
	}
	if query != nil {
		requestURL.RawQuery = query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("netsuite: failed to encode body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt, lastErr); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		respBody, err := c.attempt(ctx, operation, method, requestURL, payload, attempt)
		if err == nil {
			return respBody, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// attempt performs a single signed HTTP exchange.
func (c *Client) attempt(ctx context.Context, operation, method string, requestURL *url.URL, payload []byte, attempt int) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("netsuite: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.signer.Authorization(method, requestURL))
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		c.observe(ctx, operation, "transport_error", 0, elapsed)
		c.logger.Warn("ERP request failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", erp.ErrTransient, operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.observe(ctx, operation, "read_error", resp.StatusCode, elapsed)
		return nil, fmt.Errorf("%w: %s: reading response: %v", erp.ErrTransient, operation, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.observe(ctx, operation, "success", resp.StatusCode, elapsed)
		c.logger.Debug("ERP request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", elapsed),
		)
		return respBody, nil
	}

	classified := c.classify(operation, resp.StatusCode, respBody, resp.Header)
	c.observe(ctx, operation, outcomeLabel(classified), resp.StatusCode, elapsed)
	c.logger.Warn("ERP request rejected",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.Int("attempt", attempt),
		zap.Duration("elapsed", elapsed),
		zap.String("body", truncate(string(respBody), maxLoggedBody)),
	)
	return nil, classified
}

// classify maps an HTTP failure to the domain error taxonomy.
func (c *Client) classify(operation string, status int, body []byte, header http.Header) error {
	detail := remoteDetail(body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s: HTTP %d: %s", erp.ErrAuth, operation, status, detail)
	case status == http.StatusTooManyRequests:
		err := fmt.Errorf("%w: %s: HTTP %d: %s", erp.ErrThrottled, operation, status, detail)
		if delay := retryAfter(header); delay > 0 {
			return &throttledError{err: err, retryAfter: delay}
		}
		return err
	case status >= 500:
		return fmt.Errorf("%w: %s: HTTP %d: %s", erp.ErrTransient, operation, status, detail)
	default:
		return fmt.Errorf("%w: %s: HTTP %d: %s", erp.ErrRemoteRejected, operation, status, detail)
	}
}

// backoff waits before a retry. Throttled responses honor the server's
// Retry-After delay; everything else uses capped exponential backoff.
func (c *Client) backoff(ctx context.Context, attempt int, cause error) error {
	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}

	var throttled *throttledError
	if errors.As(cause, &throttled) && throttled.retryAfter > delay {
		delay = throttled.retryAfter
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) observe(ctx context.Context, operation, outcome string, status int, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordERPRequest(ctx, operation, outcome, status, elapsed)
}

// throttledError carries the server-requested retry delay.
type throttledError struct {
	err        error
	retryAfter time.Duration
}

func (e *throttledError) Error() string { return e.err.Error() }
func (e *throttledError) Unwrap() error { return e.err }

// isRetryable reports whether another attempt may succeed.
func isRetryable(err error) bool {
	return errors.Is(err, erp.ErrThrottled) || errors.Is(err, erp.ErrTransient)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, erp.ErrAuth):
		return "auth_error"
	case errors.Is(err, erp.ErrThrottled):
		return "throttled"
	case errors.Is(err, erp.ErrTransient):
		return "transient_error"
	default:
		return "rejected"
	}
}

// remoteDetail extracts the error detail from a NetSuite problem document,
// falling back to the truncated raw body.
func remoteDetail(body []byte) string {
	var problem errorResponse
	if err := json.Unmarshal(body, &problem); err == nil {
		if msg := problem.message(); msg != "" {
			return truncate(msg, maxLoggedBody)
		}
	}
	return truncate(string(body), maxLoggedBody)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func pageQuery(offset, limit int) url.Values {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	return query
}

// statusFilter builds the listing filter for the given status codes, e.g.
// `status ANY_OF ["A", "B"]`.
func statusFilter(statuses []string) string {
	quoted := make([]string, 0, len(statuses))
	for _, s := range statuses {
		quoted = append(quoted, `"`+s+`"`)
	}
	return "status ANY_OF [" + strings.Join(quoted, ", ") + "]"
}

// Ensure Client implements the gateway port
var _ erp.Gateway = (*Client)(nil)
