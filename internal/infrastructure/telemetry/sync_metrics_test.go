package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
)

func TestNewSyncMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	sm, err := telemetry.NewSyncMetrics(meter, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, sm)
}

func TestSyncMetrics_RecordRun(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	sm, err := telemetry.NewSyncMetrics(meter, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()

	// No-op meter must accept all combinations without panicking.
	sm.RecordRun(ctx, "purchase-orders", "success", "sandbox", 120, 0, 30*time.Second)
	sm.RecordRun(ctx, "accounts", "partial", "production", 99, 1, time.Minute)
	sm.RecordRun(ctx, "items", "failed", "production", 0, 0, time.Second)
}

func TestSyncMetrics_RecordERPRequest(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	sm, err := telemetry.NewSyncMetrics(meter, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordERPRequest(ctx, "list_purchase_orders", "success", 200, 800*time.Millisecond)
	sm.RecordERPRequest(ctx, "update_purchase_order", "throttled", 429, 2*time.Second)
}
