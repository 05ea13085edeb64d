package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
)

func newRecordingTracer(t *testing.T) (*tracetest.SpanRecorder, trace.Tracer) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return recorder, provider.Tracer("test")
}

func TestStartSpan(t *testing.T) {
	ctx, span := telemetry.StartSpan(context.Background(), "sync.purchase_orders",
		telemetry.WithAttribute("sync_type", "purchase-orders"),
		telemetry.WithSpanKind(trace.SpanKindClient),
	)
	require.NotNil(t, span)
	assert.NotNil(t, ctx)
	span.End()
}

func TestStartServiceSpan_Naming(t *testing.T) {
	_, span := telemetry.StartServiceSpan(context.Background(), "sync", "accounts")
	require.NotNil(t, span)
	span.End()
}

func TestRecordError(t *testing.T) {
	recorder, tracer := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "op")
	telemetry.RecordError(span, errors.New("remote rejected"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Len(t, spans[0].Events(), 1)
}

func TestRecordError_NilSafe(t *testing.T) {
	telemetry.RecordError(nil, errors.New("err"))

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.RecordError(span, nil)
	span.End()
}

func TestSetAttributes(t *testing.T) {
	recorder, tracer := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "op")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrNetSuiteID, int64(607632),
		telemetry.SpanAttrSyncType, "purchase-orders",
		telemetry.SpanAttrDecision, "preserve",
	)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Len(t, spans[0].Attributes(), 3)
}

func TestSetAttributes_SkipsNonStringKeys(t *testing.T) {
	recorder, tracer := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "op")
	telemetry.SetAttributes(span, 42, "value", "valid_key", "kept")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Len(t, spans[0].Attributes(), 1)
}

func TestGetTraceID(t *testing.T) {
	t.Run("empty without span", func(t *testing.T) {
		assert.Empty(t, telemetry.GetTraceID(context.Background()))
		assert.Empty(t, telemetry.GetSpanID(context.Background()))
	})

	t.Run("present with recording span", func(t *testing.T) {
		_, tracer := newRecordingTracer(t)
		ctx, span := tracer.Start(context.Background(), "op")
		defer span.End()

		assert.NotEmpty(t, telemetry.GetTraceID(ctx))
		assert.NotEmpty(t, telemetry.GetSpanID(ctx))
	})
}
