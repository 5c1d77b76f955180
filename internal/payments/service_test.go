package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/internal/auditlog"
	"github.com/tindago/tindago-backend/internal/orders"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/outbox"
	"github.com/tindago/tindago-backend/pkg/pagination"
	"github.com/tindago/tindago-backend/pkg/types"
)

type stubPaymentsRepo struct {
	payments map[uuid.UUID]*models.Payment
	updates  map[uuid.UUID]map[string]any
	verified map[uuid.UUID]int
	stale    []models.Payment

	createErr error
	updateErr error
}

func newStubPaymentsRepo() *stubPaymentsRepo {
	return &stubPaymentsRepo{
		payments: map[uuid.UUID]*models.Payment{},
		updates:  map[uuid.UUID]map[string]any{},
		verified: map[uuid.UUID]int{},
	}
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *stubPaymentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payment
	return &clone, nil
}

func (s *stubPaymentsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates[id] = updates
	if payment, ok := s.payments[id]; ok {
		if state, ok := updates["state"].(enums.PaymentState); ok {
			payment.State = state
		}
	}
	return nil
}

func (s *stubPaymentsRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range s.payments {
		if payment.OrderID == orderID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (s *stubPaymentsRepo) SumVerifiedByOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	return s.verified[orderID], nil
}

func (s *stubPaymentsRepo) FindStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	return s.stale, nil
}

type stubOrderStore struct {
	orders  map[uuid.UUID]*models.Order
	updates map[uuid.UUID]map[string]any
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{
		orders:  map[uuid.UUID]*models.Order{},
		updates: map[uuid.UUID]map[string]any{},
	}
}

func (s *stubOrderStore) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderStore) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderStore) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (s *stubOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubOrderStore) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates[id] = updates
	if order, ok := s.orders[id]; ok {
		if status, ok := updates["payment_status"].(enums.OrderPaymentStatus); ok {
			order.PaymentStatus = status
		}
	}
	return nil
}

func (s *stubOrderStore) FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return nil, nil
}

func (s *stubOrderStore) ListCursor(ctx context.Context, orgID uuid.UUID, params pagination.Params, filters orders.Filters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (s *stubOrderStore) ListOffset(ctx context.Context, orgID uuid.UUID, params pagination.OffsetParams, filters orders.Filters) (*orders.OrderPage, error) {
	return &orders.OrderPage{}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
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

type testDeps struct {
	repo   *stubPaymentsRepo
	orders *stubOrderStore
	outbox *stubOutbox
	audit  *stubAudit
}

func newTestService(t *testing.T) (Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		repo:   newStubPaymentsRepo(),
		orders: newStubOrderStore(),
		outbox: &stubOutbox{},
		audit:  &stubAudit{},
	}
	svc, err := NewService(deps.repo, deps.orders, stubTxRunner{}, deps.outbox, deps.audit)
	require.NoError(t, err)
	return svc, deps
}

func adminActor() types.Actor {
	return types.Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
}

func seedStubOrder(deps *testDeps, totalCents int) *models.Order {
	order := &models.Order{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		CustomerID:     uuid.New(),
		TotalCents:     totalCents,
		Currency:       enums.CurrencyPHP,
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.OrderPaymentStatusPending,
	}
	deps.orders.orders[order.ID] = order
	return order
}

func seedStubPayment(deps *testDeps, order *models.Order, amountCents int, state enums.PaymentState) *models.Payment {
	payment := &models.Payment{
		ID:             uuid.New(),
		OrderID:        order.ID,
		OrganizationID: order.OrganizationID,
		CustomerID:     order.CustomerID,
		AmountCents:    amountCents,
		Currency:       order.Currency,
		Method:         enums.PaymentMethodBankTransfer,
		State:          state,
	}
	deps.repo.payments[payment.ID] = payment
	return payment
}

func TestService_Record(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)

	payment, err := svc.Record(context.Background(), RecordInput{
		OrderID:     order.ID,
		AmountCents: 4000,
		Method:      enums.PaymentMethodEWallet,
		Actor:       types.Actor{UserID: order.CustomerID, OrgID: order.OrganizationID, Role: enums.ActorRoleCustomer},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatePending, payment.State)
	assert.Equal(t, order.OrganizationID, payment.OrganizationID)
	assert.Equal(t, order.Currency, payment.Currency)

	require.Len(t, deps.audit.entries, 1)
	assert.Equal(t, enums.AuditActionPaymentRecorded, deps.audit.entries[0].Action)
	// Recording alone publishes nothing; verification does.
	assert.Empty(t, deps.outbox.events)
}

func TestService_RecordValidation(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	actor := types.Actor{UserID: uuid.New(), Role: enums.ActorRoleCustomer}

	_, err := svc.Record(context.Background(), RecordInput{
		OrderID: order.ID, AmountCents: 0, Method: enums.PaymentMethodCash, Actor: actor,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Record(context.Background(), RecordInput{
		OrderID: order.ID, AmountCents: 100, Method: enums.PaymentMethod("crypto"), Actor: actor,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Record(context.Background(), RecordInput{
		OrderID: uuid.New(), AmountCents: 100, Method: enums.PaymentMethodCash, Actor: actor,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestService_RecordRejectsDeletedOrder(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	order.IsDeleted = true

	_, err := svc.Record(context.Background(), RecordInput{
		OrderID:     order.ID,
		AmountCents: 100,
		Method:      enums.PaymentMethodCash,
		Actor:       types.Actor{UserID: uuid.New(), Role: enums.ActorRoleCustomer},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestService_VerifyFullAmountMarksOrderPaid(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	payment := seedStubPayment(deps, order, 10000, enums.PaymentStatePending)
	deps.repo.verified[order.ID] = 10000

	verified, err := svc.Verify(context.Background(), payment.ID, adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStateVerified, verified.State)
	require.NotNil(t, verified.VerifiedAt)

	assert.Equal(t, enums.OrderPaymentStatusPaid, deps.orders.orders[order.ID].PaymentStatus)

	require.Len(t, deps.outbox.events, 1)
	assert.Equal(t, enums.EventPaymentVerified, deps.outbox.events[0].EventType)
	require.Len(t, deps.audit.entries, 1)
	assert.Equal(t, enums.AuditActionPaymentVerified, deps.audit.entries[0].Action)
}

func TestService_VerifyPartialAmountMarksDownpayment(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	payment := seedStubPayment(deps, order, 4000, enums.PaymentStatePending)
	deps.repo.verified[order.ID] = 4000

	_, err := svc.Verify(context.Background(), payment.ID, adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.OrderPaymentStatusDownpayment, deps.orders.orders[order.ID].PaymentStatus)
}

func TestService_VerifyTerminalPaymentIsStateConflict(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	payment := seedStubPayment(deps, order, 10000, enums.PaymentStateDeclined)

	_, err := svc.Verify(context.Background(), payment.ID, adminActor())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, deps.outbox.events)
}

func TestService_VerifyRequiresAdmin(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	payment := seedStubPayment(deps, order, 10000, enums.PaymentStatePending)

	_, err := svc.Verify(context.Background(), payment.ID, types.Actor{
		UserID: uuid.New(),
		OrgID:  order.OrganizationID,
		Role:   enums.ActorRoleSeller,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestService_Decline(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	payment := seedStubPayment(deps, order, 10000, enums.PaymentStatePending)

	declined, err := svc.Decline(context.Background(), payment.ID, "reference mismatch", adminActor())
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStateDeclined, declined.State)
	require.NotNil(t, declined.FailureReason)
	assert.Equal(t, "reference mismatch", *declined.FailureReason)

	// Order payment status untouched by a decline.
	assert.Equal(t, enums.OrderPaymentStatusPending, deps.orders.orders[order.ID].PaymentStatus)

	require.Len(t, deps.outbox.events, 1)
	assert.Equal(t, enums.EventPaymentDeclined, deps.outbox.events[0].EventType)
}

func TestService_RefundFlow(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	order.PaymentStatus = enums.OrderPaymentStatusPaid
	payment := seedStubPayment(deps, order, 10000, enums.PaymentStateVerified)
	actor := adminActor()
	ctx := context.Background()

	started, err := svc.StartRefund(ctx, payment.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStateRefundPending, started.State)
	// Order stays paid until the refund actually completes.
	assert.Equal(t, enums.OrderPaymentStatusPaid, deps.orders.orders[order.ID].PaymentStatus)

	completed, err := svc.CompleteRefund(ctx, payment.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStateRefunded, completed.State)
	assert.Equal(t, enums.OrderPaymentStatusRefunded, deps.orders.orders[order.ID].PaymentStatus)

	// Refunded is terminal, a second completion must fail loudly.
	_, err = svc.CompleteRefund(ctx, payment.ID, actor)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestService_CompleteRefundRequiresRefundPending(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	payment := seedStubPayment(deps, order, 10000, enums.PaymentStateVerified)

	_, err := svc.CompleteRefund(context.Background(), payment.ID, adminActor())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestService_ListByOrderScopedToOrganization(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	seedStubPayment(deps, order, 5000, enums.PaymentStatePending)

	listed, err := svc.ListByOrder(context.Background(), order.ID, types.Actor{
		UserID: uuid.New(),
		OrgID:  order.OrganizationID,
		Role:   enums.ActorRoleSeller,
	})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.ListByOrder(context.Background(), order.ID, types.Actor{
		UserID: uuid.New(),
		OrgID:  uuid.New(),
		Role:   enums.ActorRoleSeller,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestService_ExpireStalePending(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	first := seedStubPayment(deps, order, 1000, enums.PaymentStatePending)
	second := seedStubPayment(deps, order, 2000, enums.PaymentStatePending)
	deps.repo.stale = []models.Payment{*first, *second}

	expired, err := svc.ExpireStalePending(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	assert.Equal(t, enums.PaymentStateCancelled, deps.repo.payments[first.ID].State)
	assert.Equal(t, enums.PaymentStateCancelled, deps.repo.payments[second.ID].State)
}

func TestService_ExpireStalePendingAccumulatesFailures(t *testing.T) {
	svc, deps := newTestService(t)
	order := seedStubOrder(deps, 10000)
	first := seedStubPayment(deps, order, 1000, enums.PaymentStatePending)
	deps.repo.stale = []models.Payment{*first}
	deps.repo.updateErr = errors.New("disk full")

	expired, err := svc.ExpireStalePending(context.Background(), time.Now())
	assert.Equal(t, 0, expired)
	require.Error(t, err)
	assert.Contains(t, err.Error(), first.ID.String())
}
