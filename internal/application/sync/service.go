package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/domain/shared"
	"github.com/vendorportal/backend/internal/infrastructure/config"
	"github.com/vendorportal/backend/internal/infrastructure/logger"
	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
)

// lockAcquireTimeout bounds how long a trigger waits on the single-flight
// lock before reporting a run already in progress.
const lockAcquireTimeout = 2 * time.Second

// rowLockTimeout bounds how long one record write waits on its row lock.
const rowLockTimeout = 5 * time.Second

// rowLockTTL is the stale-holder expiry for per-record row locks.
const rowLockTTL = 30 * time.Second

// Service runs the NetSuite pull synchronization: full paginated syncs for
// accounts, items and open purchase orders, plus a targeted re-sync of one
// purchase order. Runs are single-flight per type, audit logged, and isolate
// per-record failures so one bad record never aborts a run.
type Service struct {
	provider erp.GatewayProvider
	accounts erp.AccountRepository
	items    erp.ItemRepository
	orders   erp.PurchaseOrderRepository
	syncLogs erp.SyncLogRepository
	locker   erp.RowLocker
	notifier erp.Notifier
	cfg      *config.SyncConfig
	logger   *zap.Logger
	metrics  *telemetry.SyncMetrics
}

// NewService creates a new sync Service
func NewService(
	provider erp.GatewayProvider,
	accounts erp.AccountRepository,
	items erp.ItemRepository,
	orders erp.PurchaseOrderRepository,
	syncLogs erp.SyncLogRepository,
	locker erp.RowLocker,
	notifier erp.Notifier,
	cfg *config.SyncConfig,
	log *zap.Logger,
) *Service {
	return &Service{
		provider: provider,
		accounts: accounts,
		items:    items,
		orders:   orders,
		syncLogs: syncLogs,
		locker:   locker,
		notifier: notifier,
		cfg:      cfg,
		logger:   log,
	}
}

// SetMetrics sets the sync metrics collector
func (s *Service) SetMetrics(metrics *telemetry.SyncMetrics) {
	s.metrics = metrics
}

// ---------------------------------------------------------------------------
// Public Operations
// ---------------------------------------------------------------------------

// SyncAccounts pulls all vendor accounts from NetSuite.
func (s *Service) SyncAccounts(ctx context.Context, triggeredBy string) (*erp.SyncResult, error) {
	return s.run(ctx, erp.SyncTypeAccounts, runLockKey(erp.SyncTypeAccounts), triggeredBy, s.syncAccountPages)
}

// SyncItems pulls all inventory items from NetSuite.
func (s *Service) SyncItems(ctx context.Context, triggeredBy string) (*erp.SyncResult, error) {
	return s.run(ctx, erp.SyncTypeItems, runLockKey(erp.SyncTypeItems), triggeredBy, s.syncItemPages)
}

// SyncPurchaseOrders pulls all open purchase orders from NetSuite.
func (s *Service) SyncPurchaseOrders(ctx context.Context, triggeredBy string) (*erp.SyncResult, error) {
	return s.run(ctx, erp.SyncTypePurchaseOrders, runLockKey(erp.SyncTypePurchaseOrders), triggeredBy, s.syncPurchaseOrderPages)
}

// SyncPurchaseOrder re-syncs a single purchase order by NetSuite id, used
// after an approval push or an operator-reported discrepancy. The run lock
// is keyed by order id so re-syncs of different orders never contend.
func (s *Service) SyncPurchaseOrder(ctx context.Context, netsuiteID int64, triggeredBy string) (*erp.SyncResult, error) {
	lockKey := runLockKey(erp.SyncTypeSinglePurchaseOrder) + ":" + strconv.FormatInt(netsuiteID, 10)
	return s.run(ctx, erp.SyncTypeSinglePurchaseOrder, lockKey, triggeredBy,
		func(ctx context.Context, gw erp.Gateway) (int, int, error) {
			po, err := gw.GetPurchaseOrder(ctx, netsuiteID)
			if err != nil {
				return 0, 1, err
			}
			if _, err := s.writeOrder(ctx, po); err != nil {
				return 0, 1, err
			}
			return 1, 0, nil
		})
}

// ---------------------------------------------------------------------------
// Run Lifecycle
// ---------------------------------------------------------------------------

// pageFunc pulls and persists records for one sync type, returning the
// processed and failed counters.
type pageFunc func(ctx context.Context, gw erp.Gateway) (processed, failed int, err error)

// run executes one audit-logged, single-flight sync run.
func (s *Service) run(ctx context.Context, syncType erp.SyncType, lockKey, triggeredBy string, fn pageFunc) (*erp.SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", syncType.String(),
		telemetry.WithAttribute(telemetry.SpanAttrSyncType, syncType.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSyncTrigger, triggeredBy),
	)
	defer span.End()

	release, err := s.acquireRunLock(ctx, syncType, lockKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	gw, err := s.provider.Gateway(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("sync: failed to build gateway: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrEnvironment, gw.Environment())

	entry := erp.NewSyncLogEntry(syncType, gw.Environment(), triggeredBy)
	if err := s.syncLogs.Create(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("sync: failed to open audit log entry: %w", err)
	}

	ctx, log := logger.WithSyncRun(ctx, s.logger, entry.ID.String(), syncType.String())
	log.Info("sync run started",
		zap.String("triggered_by", triggeredBy),
		zap.String("environment", entry.Environment),
	)

	start := time.Now()
	processed, failed, runErr := fn(ctx, gw)
	elapsed := time.Since(start)

	if runErr != nil {
		entry.Fail(processed, failed, runErr)
		telemetry.RecordError(span, runErr)
	} else {
		entry.Complete(processed, failed)
	}

	if err := s.syncLogs.Finalize(ctx, entry); err != nil {
		// The run outcome stands; a dangling "running" row is visible in the
		// sync log listing and flagged by operators.
		log.Error("failed to finalize sync log entry", zap.Error(err))
	}

	telemetry.SetAttributes(span,
		"records_processed", processed,
		"records_failed", failed,
	)
	if s.metrics != nil {
		s.metrics.RecordRun(ctx, syncType.String(), entry.Status.String(), entry.Environment, processed, failed, elapsed)
	}

	result := &erp.SyncResult{
		Type:             syncType,
		Status:           entry.Status,
		RecordsProcessed: processed,
		RecordsFailed:    failed,
	}

	if runErr != nil {
		result.Message = runErr.Error()
		log.Error("sync run failed",
			zap.Int("processed", processed),
			zap.Int("failed", failed),
			zap.Duration("elapsed", elapsed),
			zap.Error(runErr),
		)
		return result, runErr
	}

	log.Info("sync run finished",
		zap.String("status", entry.Status.String()),
		zap.Int("processed", processed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// runLockKey is the single-flight lock key for a full sync of one type.
// Single-order re-syncs append the order id so only same-order triggers
// contend.
func runLockKey(syncType erp.SyncType) string {
	return "sync:run:" + syncType.String()
}

// acquireRunLock takes the single-flight run lock. A held lock means an
// equivalent run is in flight and the trigger is rejected, not queued.
func (s *Service) acquireRunLock(ctx context.Context, syncType erp.SyncType, lockKey string) (func(), error) {
	ttl := s.cfg.RunTimeout + time.Minute
	if s.cfg.RunTimeout <= 0 {
		ttl = 30 * time.Minute
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()

	release, err := s.locker.Acquire(lockCtx, lockKey, ttl)
	if err != nil {
		if errors.Is(err, erp.ErrLockHeld) {
			return nil, fmt.Errorf("%w: %s", erp.ErrSyncInProgress, syncType)
		}
		return nil, err
	}
	return release, nil
}

// ---------------------------------------------------------------------------
// Page Loops
// ---------------------------------------------------------------------------

func (s *Service) syncAccountPages(ctx context.Context, gw erp.Gateway) (int, int, error) {
	var processed, failed int
	offset := 0

	for pageNum := 0; pageNum < s.cfg.MaxPages; pageNum++ {
		page, err := gw.ListVendors(ctx, offset, s.cfg.PageSize)
		if err != nil {
			return processed, failed, err
		}

		failed += s.countPageFailures(ctx, erp.EntityTypeAccount, page.Failures)
		for i := range page.Accounts {
			if err := s.accounts.Upsert(ctx, &page.Accounts[i]); err != nil {
				failed++
				logger.L(ctx).Warn("failed to upsert account",
					zap.Int64("netsuite_id", page.Accounts[i].NetSuiteID),
					zap.Error(err),
				)
				continue
			}
			processed++
		}

		if !page.HasMore {
			return processed, failed, nil
		}
		offset = page.NextOffset
	}

	logger.L(ctx).Warn("page cap reached before listing was exhausted",
		zap.Int("max_pages", s.cfg.MaxPages),
	)
	return processed, failed, nil
}

func (s *Service) syncItemPages(ctx context.Context, gw erp.Gateway) (int, int, error) {
	var processed, failed int
	offset := 0

	for pageNum := 0; pageNum < s.cfg.MaxPages; pageNum++ {
		page, err := gw.ListItems(ctx, offset, s.cfg.PageSize)
		if err != nil {
			return processed, failed, err
		}

		failed += s.countPageFailures(ctx, erp.EntityTypeItem, page.Failures)
		for i := range page.Items {
			if err := s.items.Upsert(ctx, &page.Items[i]); err != nil {
				failed++
				logger.L(ctx).Warn("failed to upsert item",
					zap.Int64("netsuite_id", page.Items[i].NetSuiteID),
					zap.Error(err),
				)
				continue
			}
			processed++
		}

		if !page.HasMore {
			return processed, failed, nil
		}
		offset = page.NextOffset
	}

	logger.L(ctx).Warn("page cap reached before listing was exhausted",
		zap.Int("max_pages", s.cfg.MaxPages),
	)
	return processed, failed, nil
}

func (s *Service) syncPurchaseOrderPages(ctx context.Context, gw erp.Gateway) (int, int, error) {
	var processed, failed int
	offset := 0

	for pageNum := 0; pageNum < s.cfg.MaxPages; pageNum++ {
		page, err := gw.ListPurchaseOrders(ctx, s.cfg.OpenPOStatuses, offset, s.cfg.PageSize)
		if err != nil {
			return processed, failed, err
		}

		failed += s.countPageFailures(ctx, erp.EntityTypePurchaseOrder, page.Failures)
		for i := range page.Orders {
			po := &page.Orders[i]
			preserved, err := s.writeOrder(ctx, po)
			if err != nil {
				failed++
				logger.L(ctx).Warn("failed to upsert purchase order",
					zap.Int64("netsuite_id", po.NetSuiteID),
					zap.String("tran_id", po.TranID),
					zap.Error(err),
				)
				continue
			}
			processed++
			if preserved {
				logger.L(ctx).Info("preserved pending vendor edits during baseline refresh",
					zap.Int64("netsuite_id", po.NetSuiteID),
					zap.String("tran_id", po.TranID),
				)
			}
		}

		if !page.HasMore {
			return processed, failed, nil
		}
		offset = page.NextOffset
	}

	logger.L(ctx).Warn("page cap reached before listing was exhausted",
		zap.Int("max_pages", s.cfg.MaxPages),
	)
	return processed, failed, nil
}

// writeOrder upserts one purchase order under its row lock so a concurrent
// approval push on the same order is serialized against the refresh. When
// pending vendor edits survive the refresh the buyer is alerted that the
// order still awaits approval.
func (s *Service) writeOrder(ctx context.Context, po *erp.PurchaseOrder) (bool, error) {
	lockCtx, cancel := context.WithTimeout(ctx, rowLockTimeout)
	defer cancel()

	release, err := s.locker.Acquire(lockCtx, "po:"+strconv.FormatInt(po.NetSuiteID, 10), rowLockTTL)
	if err != nil {
		return false, err
	}
	defer release()

	existing, err := s.orders.FindByNetSuiteID(ctx, po.NetSuiteID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}
	decision := ResolveConflict(existing)

	preserved, err := s.orders.UpsertBaseline(ctx, po)
	if err != nil {
		return false, err
	}
	if preserved && decision != DecisionPreserveVendorFields {
		// A vendor edit landed between the pre-read and the write; the
		// repository downgraded the overwrite inside its transaction.
		decision = DecisionPreserveVendorFields
	}

	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "purchase_order_upserted",
		telemetry.SpanAttrNetSuiteID, po.NetSuiteID,
		telemetry.SpanAttrDecision, decision.String(),
	)

	if preserved && s.notifier != nil && existing != nil {
		if err := s.notifier.NotifyBuyerOfVendorUpdate(ctx, existing, existing.VendorFieldNames()); err != nil {
			logger.L(ctx).Warn("failed to notify buyer of pending vendor edits",
				zap.Int64("netsuite_id", po.NetSuiteID),
				zap.Error(err),
			)
		}
	}
	return preserved, nil
}

// countPageFailures logs and counts the records a page could not map.
func (s *Service) countPageFailures(ctx context.Context, entityType erp.EntityType, failures []erp.RecordError) int {
	for _, failure := range failures {
		logger.L(ctx).Warn("skipped unmappable record",
			zap.String("entity_type", entityType.String()),
			zap.String("record_id", failure.RecordID),
			zap.Error(failure.Err),
		)
	}
	return len(failures)
}
