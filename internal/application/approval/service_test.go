package approval

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeGateway struct {
	patches     []erp.PurchaseOrderPatch
	messages    []*erp.OutboundMessage
	patchErr    error
	messageErr  error
	failMessage int // 1-based index of the CreateMessage call that fails, 0 = never
}

func (g *fakeGateway) Environment() string { return "sandbox" }

func (g *fakeGateway) ListVendors(_ context.Context, _, _ int) (*erp.AccountPage, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) ListItems(_ context.Context, _, _ int) (*erp.ItemPage, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) ListPurchaseOrders(_ context.Context, _ []string, _, _ int) (*erp.PurchaseOrderPage, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) GetPurchaseOrder(_ context.Context, _ int64) (*erp.PurchaseOrder, error) {
	return nil, errors.New("not implemented")
}

func (g *fakeGateway) UpdatePurchaseOrder(_ context.Context, _ int64, patch erp.PurchaseOrderPatch) error {
	if g.patchErr != nil {
		return g.patchErr
	}
	g.patches = append(g.patches, patch)
	return nil
}

func (g *fakeGateway) CreateMessage(_ context.Context, msg *erp.OutboundMessage) error {
	if g.failMessage > 0 && len(g.messages)+1 == g.failMessage {
		return g.messageErr
	}
	g.messages = append(g.messages, msg)
	return nil
}

type fakeProvider struct {
	gw  erp.Gateway
	err error
}

func (p *fakeProvider) Gateway(_ context.Context) (erp.Gateway, error) {
	return p.gw, p.err
}

type fakeOrderRepo struct {
	po       *erp.PurchaseOrder
	cleared  []int64
	clearErr error
}

func (r *fakeOrderRepo) FindByNetSuiteID(_ context.Context, netsuiteID int64) (*erp.PurchaseOrder, error) {
	if r.po == nil || r.po.NetSuiteID != netsuiteID {
		return nil, shared.ErrNotFound
	}
	copied := *r.po
	return &copied, nil
}

func (r *fakeOrderRepo) Insert(_ context.Context, _ *erp.PurchaseOrder) error {
	return errors.New("not implemented")
}

func (r *fakeOrderRepo) UpsertBaseline(_ context.Context, _ *erp.PurchaseOrder) (bool, error) {
	return false, errors.New("not implemented")
}

func (r *fakeOrderRepo) ClearVendorUpdates(_ context.Context, netsuiteID int64) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	r.cleared = append(r.cleared, netsuiteID)
	return nil
}

type fakeCommentRepo struct {
	pending []erp.PurchaseOrderComment
	marked  [][]uuid.UUID
}

func (r *fakeCommentRepo) FindPendingForPush(_ context.Context, _ uuid.UUID) ([]erp.PurchaseOrderComment, error) {
	return r.pending, nil
}

func (r *fakeCommentRepo) MarkPushed(_ context.Context, ids []uuid.UUID) error {
	r.marked = append(r.marked, ids)
	return nil
}

type fakeLocker struct {
	held bool
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held {
		return nil, fmt.Errorf("%w: %s", erp.ErrLockHeld, key)
	}
	return func() {}, nil
}

type fakeNotifier struct {
	approved []int64
	err      error
}

func (n *fakeNotifier) NotifyBuyerOfVendorUpdate(_ context.Context, _ *erp.PurchaseOrder, _ []string) error {
	return nil
}

func (n *fakeNotifier) NotifyVendorOfApproval(_ context.Context, po *erp.PurchaseOrder) error {
	if n.err != nil {
		return n.err
	}
	n.approved = append(n.approved, po.NetSuiteID)
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func strPtr(s string) *string { return &s }

func pendingOrder() *erp.PurchaseOrder {
	return &erp.PurchaseOrder{
		ID:               uuid.New(),
		NetSuiteID:       607632,
		TranID:           "PO607632",
		Status:           "B",
		Vendor:           erp.RecordRef{ID: 88, Name: "Acme Textiles"},
		VesselName:       strPtr("MV Ever Given"),
		VesselNumber:     strPtr("IMO9811000"),
		HasVendorUpdates: true,
	}
}

type approvalFixture struct {
	service  *Service
	gateway  *fakeGateway
	orders   *fakeOrderRepo
	comments *fakeCommentRepo
	locker   *fakeLocker
	notifier *fakeNotifier
}

func newApprovalFixture(po *erp.PurchaseOrder) *approvalFixture {
	f := &approvalFixture{
		gateway:  &fakeGateway{},
		orders:   &fakeOrderRepo{po: po},
		comments: &fakeCommentRepo{},
		locker:   &fakeLocker{},
		notifier: &fakeNotifier{},
	}
	f.service = NewService(
		&fakeProvider{gw: f.gateway},
		f.orders, f.comments, f.locker, f.notifier,
		zap.NewNop(),
	)
	return f
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestApprove_PushesFieldsAndClearsFlag(t *testing.T) {
	f := newApprovalFixture(pendingOrder())

	po, err := f.service.Approve(context.Background(), 607632, "buyer-12", "")
	require.NoError(t, err)

	require.Len(t, f.gateway.patches, 1)
	patch := f.gateway.patches[0]
	require.NotNil(t, patch.VesselName)
	assert.Equal(t, "MV Ever Given", *patch.VesselName)
	assert.Nil(t, patch.ShipDate)

	assert.Equal(t, []int64{607632}, f.orders.cleared)
	assert.False(t, po.HasVendorUpdates)
	assert.True(t, po.SyncedToNetSuite)
	assert.Equal(t, []int64{607632}, f.notifier.approved)
}

func TestApprove_ReplaysCommentThread(t *testing.T) {
	order := pendingOrder()
	f := newApprovalFixture(order)
	f.comments.pending = []erp.PurchaseOrderComment{
		{ID: uuid.New(), PurchaseOrderID: order.ID, AuthorRole: erp.CommentAuthorVendor, Body: "Vessel confirmed."},
		{ID: uuid.New(), PurchaseOrderID: order.ID, AuthorRole: erp.CommentAuthorBuyer, Body: "Please confirm ETA."},
	}

	_, err := f.service.Approve(context.Background(), 607632, "buyer-12", "Approved, thanks.")
	require.NoError(t, err)

	// Two replayed comments plus the buyer's approval comment.
	require.Len(t, f.gateway.messages, 3)
	assert.Equal(t, "Vessel confirmed.", f.gateway.messages[0].Body)
	assert.Contains(t, f.gateway.messages[0].Subject, "vendor")
	assert.Contains(t, f.gateway.messages[1].Subject, "buyer")
	assert.Equal(t, "Approved, thanks.", f.gateway.messages[2].Body)
	assert.Equal(t, int64(88), f.gateway.messages[0].AuthorID)

	require.Len(t, f.comments.marked, 1)
	assert.Len(t, f.comments.marked[0], 2)
}

func TestApprove_NoPendingUpdates(t *testing.T) {
	order := pendingOrder()
	order.HasVendorUpdates = false
	f := newApprovalFixture(order)

	_, err := f.service.Approve(context.Background(), 607632, "buyer-12", "")
	assert.ErrorIs(t, err, erp.ErrNoVendorUpdates)
	assert.Empty(t, f.gateway.patches)
	assert.Empty(t, f.orders.cleared)
}

func TestApprove_RemotePushFailureKeepsFlag(t *testing.T) {
	f := newApprovalFixture(pendingOrder())
	f.gateway.patchErr = fmt.Errorf("%w: gateway timeout", erp.ErrTransient)

	_, err := f.service.Approve(context.Background(), 607632, "buyer-12", "")
	require.ErrorIs(t, err, erp.ErrTransient)

	// The flag survives so a retry re-sends the same patch.
	assert.Empty(t, f.orders.cleared)
	assert.Empty(t, f.notifier.approved)
}

func TestApprove_PartialCommentReplayKeepsFlag(t *testing.T) {
	order := pendingOrder()
	f := newApprovalFixture(order)
	f.comments.pending = []erp.PurchaseOrderComment{
		{ID: uuid.New(), AuthorRole: erp.CommentAuthorVendor, Body: "first"},
		{ID: uuid.New(), AuthorRole: erp.CommentAuthorVendor, Body: "second"},
	}
	f.gateway.failMessage = 2
	f.gateway.messageErr = fmt.Errorf("%w: gateway timeout", erp.ErrTransient)

	_, err := f.service.Approve(context.Background(), 607632, "buyer-12", "")
	require.ErrorIs(t, err, erp.ErrTransient)

	// The first comment landed and is marked so a retry will not resend it.
	require.Len(t, f.comments.marked, 1)
	assert.Equal(t, []uuid.UUID{f.comments.pending[0].ID}, f.comments.marked[0])
	assert.Empty(t, f.orders.cleared)
}

func TestApprove_AcceptActionSkipsRemotePatch(t *testing.T) {
	order := pendingOrder()
	order.VesselName = nil
	order.VesselNumber = nil
	order.VendorAccepted = true
	f := newApprovalFixture(order)

	po, err := f.service.Approve(context.Background(), 607632, "buyer-12", "")
	require.NoError(t, err)

	assert.Empty(t, f.gateway.patches)
	assert.Equal(t, []int64{607632}, f.orders.cleared)
	assert.False(t, po.HasVendorUpdates)
}

func TestApprove_RowLockHeld(t *testing.T) {
	f := newApprovalFixture(pendingOrder())
	f.locker.held = true

	_, err := f.service.Approve(context.Background(), 607632, "buyer-12", "")
	assert.ErrorIs(t, err, erp.ErrSyncInProgress)
}

func TestApprove_NotFound(t *testing.T) {
	f := newApprovalFixture(nil)

	_, err := f.service.Approve(context.Background(), 999, "buyer-12", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApprove_NotifierFailureDoesNotFailApproval(t *testing.T) {
	f := newApprovalFixture(pendingOrder())
	f.notifier.err = errors.New("webhook down")

	_, err := f.service.Approve(context.Background(), 607632, "buyer-12", "")
	require.NoError(t, err)
	assert.Equal(t, []int64{607632}, f.orders.cleared)
}
