package approval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/domain/shared"
	"github.com/vendorportal/backend/internal/infrastructure/logger"
	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
)

// rowLockTimeout bounds how long an approval waits on the order's row lock
// before giving up, typically because a sync run holds it.
const rowLockTimeout = 5 * time.Second

// rowLockTTL is the stale-holder expiry for the approval's row lock.
const rowLockTTL = 30 * time.Second

// Service is the buyer approval gate: the only path by which vendor edits
// flow back into NetSuite. Approving an order pushes the vendor's logistics
// fields as a minimal patch, replays the pending comment thread as ERP
// messages, and clears the pending flag only after the push succeeded.
type Service struct {
	provider erp.GatewayProvider
	orders   erp.PurchaseOrderRepository
	comments erp.CommentRepository
	locker   erp.RowLocker
	notifier erp.Notifier
	logger   *zap.Logger
	metrics  *telemetry.SyncMetrics
}

// NewService creates a new approval Service
func NewService(
	provider erp.GatewayProvider,
	orders erp.PurchaseOrderRepository,
	comments erp.CommentRepository,
	locker erp.RowLocker,
	notifier erp.Notifier,
	log *zap.Logger,
) *Service {
	return &Service{
		provider: provider,
		orders:   orders,
		comments: comments,
		locker:   locker,
		notifier: notifier,
		logger:   log.Named("approval"),
	}
}

// SetMetrics sets the sync metrics collector
func (s *Service) SetMetrics(metrics *telemetry.SyncMetrics) {
	s.metrics = metrics
}

// Approve pushes a purchase order's pending vendor edits into NetSuite on
// behalf of a buyer. The optional buyerComment is appended to the ERP-side
// conversation after the replayed thread.
//
// The operation is idempotent per pending-edit cycle: a re-approval after a
// successful push returns ErrNoVendorUpdates, and a retry after a failed
// push re-sends the same patch, which NetSuite applies as a no-op.
func (s *Service) Approve(ctx context.Context, netsuiteID int64, approvedBy, buyerComment string) (*erp.PurchaseOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "approval", "approve",
		telemetry.WithAttribute(telemetry.SpanAttrNetSuiteID, netsuiteID),
	)
	defer span.End()

	lockCtx, cancel := context.WithTimeout(ctx, rowLockTimeout)
	release, err := s.locker.Acquire(lockCtx, "po:"+strconv.FormatInt(netsuiteID, 10), rowLockTTL)
	cancel()
	if err != nil {
		if errors.Is(err, erp.ErrLockHeld) {
			err = fmt.Errorf("%w: purchase order %d is being written by another operation", erp.ErrSyncInProgress, netsuiteID)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	po, err := s.orders.FindByNetSuiteID(ctx, netsuiteID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			return nil, err
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("approval: failed to load purchase order: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrTranID, po.TranID)

	if !po.HasVendorUpdates {
		return nil, fmt.Errorf("%w: %s", erp.ErrNoVendorUpdates, po.TranID)
	}

	gw, err := s.provider.Gateway(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("approval: failed to build gateway: %w", err)
	}

	log := s.logger.With(
		zap.Int64("netsuite_id", netsuiteID),
		zap.String("tran_id", po.TranID),
		zap.String("approved_by", approvedBy),
	)

	start := time.Now()
	patch := po.PatchFromVendorFields()
	if patch.IsEmpty() {
		// Accept and reject actions set the pending flag without touching the
		// logistics fields; there is nothing to patch remotely.
		log.Info("approval carries no field changes, skipping remote patch",
			zap.String("vendor_action", string(po.PendingVendorAction())),
		)
	} else {
		if err := gw.UpdatePurchaseOrder(ctx, netsuiteID, patch); err != nil {
			telemetry.RecordError(span, err)
			s.recordOutcome(ctx, gw, "failed", start)
			return nil, fmt.Errorf("approval: failed to push vendor fields for %s: %w", po.TranID, err)
		}
		telemetry.SetAttribute(span, telemetry.SpanAttrChangedFields, po.VendorFieldNames())
		log.Info("pushed vendor fields to erp",
			zap.Strings("changed_fields", po.VendorFieldNames()),
		)
	}

	if err := s.replayComments(ctx, gw, po); err != nil {
		// The field patch already landed; clearing the flag now would orphan
		// the unsent comments. Leave the flag set so a retry replays them.
		telemetry.RecordError(span, err)
		s.recordOutcome(ctx, gw, "failed", start)
		return nil, err
	}

	if buyerComment != "" {
		if err := gw.CreateMessage(ctx, &erp.OutboundMessage{
			PurchaseOrderID: netsuiteID,
			AuthorID:        po.Vendor.ID,
			Subject:         fmt.Sprintf("Portal buyer comment on %s", po.TranID),
			Body:            buyerComment,
		}); err != nil {
			// The approval itself succeeded; the courtesy comment is not
			// worth failing it over.
			log.Warn("failed to push buyer comment", zap.Error(err))
		}
	}

	if err := s.orders.ClearVendorUpdates(ctx, netsuiteID); err != nil && !errors.Is(err, erp.ErrNoVendorUpdates) {
		telemetry.RecordError(span, err)
		s.recordOutcome(ctx, gw, "failed", start)
		return nil, fmt.Errorf("approval: pushed to erp but failed to clear pending flag for %s: %w", po.TranID, err)
	}
	po.HasVendorUpdates = false
	po.SyncedToNetSuite = true

	s.recordOutcome(ctx, gw, "success", start)
	log.Info("approval completed")

	if s.notifier != nil {
		if err := s.notifier.NotifyVendorOfApproval(ctx, po); err != nil {
			log.Warn("failed to notify vendor of approval", zap.Error(err))
		}
	}

	return po, nil
}

// replayComments pushes the order's unsent, non-internal comments into the
// ERP conversation oldest first and marks them pushed.
func (s *Service) replayComments(ctx context.Context, gw erp.Gateway, po *erp.PurchaseOrder) error {
	pending, err := s.comments.FindPendingForPush(ctx, po.ID)
	if err != nil {
		return fmt.Errorf("approval: failed to load pending comments for %s: %w", po.TranID, err)
	}
	if len(pending) == 0 {
		return nil
	}

	pushed := make([]uuid.UUID, 0, len(pending))
	for i := range pending {
		comment := &pending[i]
		msg := &erp.OutboundMessage{
			PurchaseOrderID: po.NetSuiteID,
			// Messages attach under the vendor entity's thread; the actual
			// author role travels in the subject.
			AuthorID: po.Vendor.ID,
			Subject:  fmt.Sprintf("Portal %s comment on %s", comment.AuthorRole, po.TranID),
			Body:     comment.Body,
		}
		if err := gw.CreateMessage(ctx, msg); err != nil {
			// Mark what landed so a retry does not duplicate it.
			if len(pushed) > 0 {
				if markErr := s.comments.MarkPushed(ctx, pushed); markErr != nil {
					logger.L(ctx).Error("failed to mark replayed comments",
						zap.String("tran_id", po.TranID),
						zap.Error(markErr),
					)
				}
			}
			return fmt.Errorf("approval: failed to replay comment %s for %s: %w", comment.ID, po.TranID, err)
		}
		pushed = append(pushed, comment.ID)
	}

	if err := s.comments.MarkPushed(ctx, pushed); err != nil {
		return fmt.Errorf("approval: failed to mark replayed comments for %s: %w", po.TranID, err)
	}
	logger.L(ctx).Info("replayed comment thread to erp",
		zap.String("tran_id", po.TranID),
		zap.Int("comments", len(pushed)),
	)
	return nil
}

func (s *Service) recordOutcome(ctx context.Context, gw erp.Gateway, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordApproval(ctx, gw.Environment(), outcome, time.Since(start))
}
