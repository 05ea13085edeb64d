package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/infrastructure/config"
)

// SyncRunner is the slice of the sync service the scheduler drives.
type SyncRunner interface {
	SyncAccounts(ctx context.Context, triggeredBy string) (*erp.SyncResult, error)
	SyncItems(ctx context.Context, triggeredBy string) (*erp.SyncResult, error)
	SyncPurchaseOrders(ctx context.Context, triggeredBy string) (*erp.SyncResult, error)
}

// triggeredBySchedule marks scheduler-initiated runs in the audit trail.
const triggeredBySchedule = "schedule"

// SyncScheduler fires periodic full syncs, one ticker per sync type so the
// hourly purchase order cadence is independent of the slower account and
// item cadences. The sync service's single-flight lock keeps an overdue run
// from stacking on a still-running one.
type SyncScheduler struct {
	cfg    *config.SchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(cfg *config.SchedulerConfig, runner SyncRunner, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{
		cfg:    cfg,
		runner: runner,
		logger: logger.Named("scheduler"),
	}
}

// Start launches the per-type ticker loops. A disabled scheduler starts as
// a no-op so the composition root does not need to branch.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info("sync scheduler disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.launch(ctx, erp.SyncTypeAccounts, s.cfg.AccountsInterval, s.runner.SyncAccounts)
	s.launch(ctx, erp.SyncTypeItems, s.cfg.ItemsInterval, s.runner.SyncItems)
	s.launch(ctx, erp.SyncTypePurchaseOrders, s.cfg.PurchaseOrdsInterval, s.runner.SyncPurchaseOrders)

	s.logger.Info("sync scheduler started",
		zap.Duration("accounts_interval", s.cfg.AccountsInterval),
		zap.Duration("items_interval", s.cfg.ItemsInterval),
		zap.Duration("purchase_orders_interval", s.cfg.PurchaseOrdsInterval),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight runs to finish
// or the given context to expire.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out")
		return ctx.Err()
	}
}

type runFunc func(ctx context.Context, triggeredBy string) (*erp.SyncResult, error)

// launch starts one ticker loop for a sync type. An interval of zero or less
// disables that type.
func (s *SyncScheduler) launch(ctx context.Context, syncType erp.SyncType, interval time.Duration, run runFunc) {
	if interval <= 0 {
		s.logger.Info("scheduled sync disabled", zap.String("sync_type", syncType.String()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.fire(ctx, syncType, run)
			}
		}
	}()
}

// fire executes one scheduled run and logs its outcome.
func (s *SyncScheduler) fire(ctx context.Context, syncType erp.SyncType, run runFunc) {
	log := s.logger.With(zap.String("sync_type", syncType.String()))

	result, err := run(ctx, triggeredBySchedule)
	switch {
	case errors.Is(err, erp.ErrSyncInProgress):
		// The previous run is still going; this tick is skipped, not queued.
		log.Info("scheduled sync skipped, previous run still in flight")
	case err != nil:
		log.Error("scheduled sync failed", zap.Error(err))
	default:
		log.Info("scheduled sync finished",
			zap.String("status", result.Status.String()),
			zap.Int("processed", result.RecordsProcessed),
			zap.Int("failed", result.RecordsFailed),
		)
	}
}
