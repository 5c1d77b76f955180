package vouchers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/internal/auditlog"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/outbox"
	"github.com/tindago/tindago-backend/pkg/types"
)

func setupVouchersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS vouchers (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  organization_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  discount_value_cents INTEGER NOT NULL,
  source_order_id TEXT NOT NULL,
  cancelled_by TEXT NOT NULL,
  is_consumed INTEGER NOT NULL DEFAULT 0,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS voucher_refund_requests (
  id TEXT PRIMARY KEY,
  voucher_id TEXT NOT NULL,
  organization_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  requested_amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  admin_message TEXT,
  reviewed_by TEXT,
  reviewed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS ux_voucher_refund_requests_voucher_pending
  ON voucher_refund_requests (voucher_id)
  WHERE status = 'pending';`, `
CREATE TABLE IF NOT EXISTS payout_adjustments (
  id TEXT PRIMARY KEY,
  organization_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  reason TEXT NOT NULL,
  effective_at DATETIME NOT NULL,
  invoice_id TEXT,
  source_request_id TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type stubTxRunner struct {
	db *gorm.DB
}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(s.db)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubAudit struct {
	entries []auditlog.RecordInput
}

func (s *stubAudit) Record(ctx context.Context, tx *gorm.DB, input auditlog.RecordInput) (*models.AuditLog, error) {
	s.entries = append(s.entries, input)
	return &models.AuditLog{ID: uuid.New()}, nil
}

func newVouchersService(t *testing.T) (Service, *gorm.DB, *stubOutbox, *stubAudit) {
	t.Helper()
	db := setupVouchersTestDB(t)
	outboxStub := &stubOutbox{}
	auditStub := &stubAudit{}
	svc, err := NewService(NewRepository(db), stubTxRunner{db: db}, outboxStub, auditStub)
	require.NoError(t, err)
	return svc, db, outboxStub, auditStub
}

func seedVoucher(t *testing.T, db *gorm.DB, valueCents int, mutate func(voucher *models.Voucher)) *models.Voucher {
	t.Helper()
	expires := time.Now().Add(30 * 24 * time.Hour)
	voucher := &models.Voucher{
		ID:                 uuid.New(),
		Code:               fmt.Sprintf("VCH-%s", uuid.NewString()[:12]),
		OrganizationID:     uuid.New(),
		CustomerID:         uuid.New(),
		DiscountValueCents: valueCents,
		SourceOrderID:      uuid.New(),
		CancelledBy:        uuid.New(),
		ExpiresAt:          &expires,
	}
	if mutate != nil {
		mutate(voucher)
	}
	require.NoError(t, db.Create(voucher).Error)
	return voucher
}

func customerActor(voucher *models.Voucher) types.Actor {
	return types.Actor{UserID: voucher.CustomerID, Role: enums.ActorRoleCustomer}
}

func adminActor() types.Actor {
	return types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
}

func TestService_Submit(t *testing.T) {
	svc, db, _, audit := newVouchersService(t)
	voucher := seedVoucher(t, db, 5000, nil)

	request, err := svc.Submit(context.Background(), SubmitInput{
		VoucherID:            voucher.ID,
		RequestedAmountCents: 5000,
		Actor:                customerActor(voucher),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.VoucherRefundStatusPending, request.Status)
	assert.Equal(t, voucher.OrganizationID, request.OrganizationID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, enums.AuditActionVoucherRefundRequest, audit.entries[0].Action)
}

func TestService_SubmitValidation(t *testing.T) {
	svc, db, _, _ := newVouchersService(t)
	ctx := context.Background()

	voucher := seedVoucher(t, db, 5000, nil)
	actor := customerActor(voucher)

	_, err := svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 5001, Actor: actor})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	consumed := seedVoucher(t, db, 5000, func(v *models.Voucher) { v.IsConsumed = true })
	_, err = svc.Submit(ctx, SubmitInput{VoucherID: consumed.ID, RequestedAmountCents: 1000, Actor: customerActor(consumed)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	past := time.Now().Add(-time.Hour)
	expired := seedVoucher(t, db, 5000, func(v *models.Voucher) { v.ExpiresAt = &past })
	_, err = svc.Submit(ctx, SubmitInput{VoucherID: expired.ID, RequestedAmountCents: 1000, Actor: customerActor(expired)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 1000, Actor: types.Actor{
		UserID: uuid.New(),
		Role:   enums.ActorRoleCustomer,
	}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestService_SubmitDuplicatePendingIsConflict(t *testing.T) {
	svc, db, _, _ := newVouchersService(t)
	ctx := context.Background()
	voucher := seedVoucher(t, db, 5000, nil)
	actor := customerActor(voucher)

	_, err := svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 2000, Actor: actor})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 2000, Actor: actor})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestService_ApproveCreatesNegativeAdjustmentAndConsumesVoucher(t *testing.T) {
	svc, db, outboxStub, _ := newVouchersService(t)
	ctx := context.Background()
	voucher := seedVoucher(t, db, 5000, nil)

	request, err := svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 4000, Actor: customerActor(voucher)})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, request.ID, "verified against order", adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.VoucherRefundStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)

	var adjustment models.PayoutAdjustment
	require.NoError(t, db.Where("source_request_id = ?", request.ID).First(&adjustment).Error)
	assert.Equal(t, -4000, adjustment.AmountCents)
	assert.Equal(t, enums.AdjustmentKindVoucherRefund, adjustment.Kind)
	assert.Nil(t, adjustment.InvoiceID)

	var reloadedVoucher models.Voucher
	require.NoError(t, db.Where("id = ?", voucher.ID).First(&reloadedVoucher).Error)
	assert.True(t, reloadedVoucher.IsConsumed)

	require.Len(t, outboxStub.events, 1)
	assert.Equal(t, enums.EventVoucherRefundApproved, outboxStub.events[0].EventType)
}

func TestService_RejectHasNoFinancialEffect(t *testing.T) {
	svc, db, outboxStub, _ := newVouchersService(t)
	ctx := context.Background()
	voucher := seedVoucher(t, db, 5000, nil)

	request, err := svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 4000, Actor: customerActor(voucher)})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, request.ID, "receipt mismatch", adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.VoucherRefundStatusRejected, rejected.Status)

	var count int64
	require.NoError(t, db.Model(&models.PayoutAdjustment{}).Count(&count).Error)
	assert.Zero(t, count)

	var reloadedVoucher models.Voucher
	require.NoError(t, db.Where("id = ?", voucher.ID).First(&reloadedVoucher).Error)
	assert.False(t, reloadedVoucher.IsConsumed)

	require.Len(t, outboxStub.events, 1)
	assert.Equal(t, enums.EventVoucherRefundRejected, outboxStub.events[0].EventType)
}

func TestService_DecidingDecidedRequestIsStateConflict(t *testing.T) {
	svc, db, _, _ := newVouchersService(t)
	ctx := context.Background()
	voucher := seedVoucher(t, db, 5000, nil)
	admin := adminActor()

	request, err := svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 4000, Actor: customerActor(voucher)})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, request.ID, "", admin)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID, "", admin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = svc.Reject(ctx, request.ID, "", admin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestService_DecisionRequiresAdmin(t *testing.T) {
	svc, db, _, _ := newVouchersService(t)
	ctx := context.Background()
	voucher := seedVoucher(t, db, 5000, nil)

	request, err := svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 4000, Actor: customerActor(voucher)})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID, "", customerActor(voucher))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestService_RejectedVoucherRemainsRequestable(t *testing.T) {
	svc, db, _, _ := newVouchersService(t)
	ctx := context.Background()
	voucher := seedVoucher(t, db, 5000, nil)
	actor := customerActor(voucher)

	first, err := svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 4000, Actor: actor})
	require.NoError(t, err)
	_, err = svc.Reject(ctx, first.ID, "", adminActor())
	require.NoError(t, err)

	// The partial index only blocks pending rows.
	_, err = svc.Submit(ctx, SubmitInput{VoucherID: voucher.ID, RequestedAmountCents: 3000, Actor: actor})
	require.NoError(t, err)
}
