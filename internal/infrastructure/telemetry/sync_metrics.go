// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics tracks the health of ERP synchronization: run outcomes,
// per-record throughput and outbound request latency.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	runsTotal        *Counter
	recordsProcessed *Counter
	recordsFailed    *Counter
	erpRequestsTotal *Counter
	approvalsTotal   *Counter

	runDuration        *Histogram
	erpRequestDuration *Histogram
	approvalDuration   *Histogram
}

// NewSyncMetrics creates the sync instrument set on the given meter.
func NewSyncMetrics(meter metric.Meter, logger *zap.Logger) (*SyncMetrics, error) {
	sm := &SyncMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error

	sm.runsTotal, err = NewCounter(meter,
		"sync_runs_total",
		"Total number of sync runs by type and terminal status",
		"{run}")
	if err != nil {
		return nil, err
	}

	sm.recordsProcessed, err = NewCounter(meter,
		"sync_records_processed_total",
		"Total number of records successfully upserted by sync runs",
		"{record}")
	if err != nil {
		return nil, err
	}

	sm.recordsFailed, err = NewCounter(meter,
		"sync_records_failed_total",
		"Total number of records skipped by sync runs after mapping or write errors",
		"{record}")
	if err != nil {
		return nil, err
	}

	sm.erpRequestsTotal, err = NewCounter(meter,
		"erp_requests_total",
		"Total number of outbound ERP API requests by operation and outcome",
		"{request}")
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "sync_run_duration_seconds",
		Description: "End to end duration of sync runs",
		Unit:        "s",
		Boundaries:  SyncRunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.erpRequestDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "erp_request_duration_seconds",
		Description: "Duration of outbound ERP API requests including rate limiter wait",
		Unit:        "s",
		Boundaries:  ERPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.approvalsTotal, err = NewCounter(meter,
		"approvals_total",
		"Total number of buyer approval pushes by outcome",
		"{approval}")
	if err != nil {
		return nil, err
	}

	sm.approvalDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "approval_duration_seconds",
		Description: "End to end duration of buyer approval pushes",
		Unit:        "s",
		Boundaries:  ERPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordRun records a finished sync run with its terminal status and counters.
func (sm *SyncMetrics) RecordRun(ctx context.Context, syncType, status, environment string, processed, failed int, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		AttrSyncType.String(syncType),
		AttrSyncStatus.String(status),
		AttrERPEnvironment.String(environment),
	}

	sm.runsTotal.Inc(ctx, attrs...)
	sm.runDuration.RecordDuration(ctx, elapsed, attrs...)

	recordAttrs := []attribute.KeyValue{
		AttrSyncType.String(syncType),
		AttrERPEnvironment.String(environment),
	}
	if processed > 0 {
		sm.recordsProcessed.Add(ctx, int64(processed), recordAttrs...)
	}
	if failed > 0 {
		sm.recordsFailed.Add(ctx, int64(failed), recordAttrs...)
	}
}

// RecordApproval records one finished buyer approval push.
func (sm *SyncMetrics) RecordApproval(ctx context.Context, environment, outcome string, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		AttrERPEnvironment.String(environment),
		AttrERPOutcome.String(outcome),
	}

	sm.approvalsTotal.Inc(ctx, attrs...)
	sm.approvalDuration.RecordDuration(ctx, elapsed, attrs...)
}

// RecordERPRequest records one outbound ERP API call.
func (sm *SyncMetrics) RecordERPRequest(ctx context.Context, operation, outcome string, statusCode int, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		AttrERPOperation.String(operation),
		AttrERPOutcome.String(outcome),
		AttrERPStatusCode.Int(statusCode),
	}

	sm.erpRequestsTotal.Inc(ctx, attrs...)
	sm.erpRequestDuration.RecordDuration(ctx, elapsed, attrs...)
}
