package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/infrastructure/auth"
	"github.com/vendorportal/backend/internal/infrastructure/config"
	"github.com/vendorportal/backend/internal/interfaces/http/handler"
)

const (
	testSecret  = "0123456789abcdef0123456789abcdef"
	testIssuer  = "vendorportal"
	testWebhook = "webhook-shared-token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSyncService struct {
	lastTrigger string
}

func (s *stubSyncService) okResult(t erp.SyncType) (*erp.SyncResult, error) {
	return &erp.SyncResult{Type: t, Status: erp.SyncStatusSuccess}, nil
}

func (s *stubSyncService) SyncAccounts(_ context.Context, triggeredBy string) (*erp.SyncResult, error) {
	s.lastTrigger = triggeredBy
	return s.okResult(erp.SyncTypeAccounts)
}

func (s *stubSyncService) SyncItems(_ context.Context, triggeredBy string) (*erp.SyncResult, error) {
	s.lastTrigger = triggeredBy
	return s.okResult(erp.SyncTypeItems)
}

func (s *stubSyncService) SyncPurchaseOrders(_ context.Context, triggeredBy string) (*erp.SyncResult, error) {
	s.lastTrigger = triggeredBy
	return s.okResult(erp.SyncTypePurchaseOrders)
}

func (s *stubSyncService) SyncPurchaseOrder(_ context.Context, _ int64, triggeredBy string) (*erp.SyncResult, error) {
	s.lastTrigger = triggeredBy
	return s.okResult(erp.SyncTypeSinglePurchaseOrder)
}

type stubApprovalService struct{}

func (s *stubApprovalService) Approve(context.Context, int64, string, string) (*erp.PurchaseOrder, error) {
	return &erp.PurchaseOrder{NetSuiteID: 1, SyncedToNetSuite: true}, nil
}

type stubSyncLogRepo struct{}

func (stubSyncLogRepo) Create(context.Context, *erp.SyncLogEntry) error   { return nil }
func (stubSyncLogRepo) Finalize(context.Context, *erp.SyncLogEntry) error { return nil }
func (stubSyncLogRepo) List(context.Context, erp.SyncLogFilter) ([]erp.SyncLogEntry, int64, error) {
	return nil, 0, nil
}

func testEngine(t *testing.T, sync *stubSyncService) *gin.Engine {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = testSecret
	cfg.Auth.JWTIssuer = testIssuer
	cfg.Auth.WebhookToken = testWebhook
	cfg.HTTP.MaxBodySize = 1 << 20

	return New(Deps{
		Config:   cfg,
		Logger:   zaptest.NewLogger(t),
		Verifier: auth.NewTokenVerifier(&cfg.Auth),
		Health:   handler.NewHealthHandler(nil, "test"),
		Sync:     handler.NewSyncHandler(sync, stubSyncLogRepo{}),
		Approval: handler.NewApprovalHandler(&stubApprovalService{}),
	})
}

func operatorToken(t *testing.T) string {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		OperatorID: "op-42",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestRouterHealthIsPublic(t *testing.T) {
	r := testEngine(t, &stubSyncService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterAPIRequiresJWT(t *testing.T) {
	sync := &stubSyncService{}
	r := testEngine(t, sync)

	body := bytes.NewBufferString(`{"type":"accounts"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body = bytes.NewBufferString(`{"type":"accounts"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sync", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+operatorToken(t))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "op-42", sync.lastTrigger)
}

func TestRouterApprovalRoute(t *testing.T) {
	r := testEngine(t, &stubSyncService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase-orders/607632/approve", nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterWebhookUsesSharedToken(t *testing.T) {
	sync := &stubSyncService{}
	r := testEngine(t, sync)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/purchase-orders/607632/sync", nil)
	req.Header.Set("Authorization", "Bearer "+testWebhook)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "webhook", sync.lastTrigger)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/purchase-orders/607632/sync", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterSecurityHeaders(t *testing.T) {
	r := testEngine(t, &stubSyncService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
