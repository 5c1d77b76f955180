package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/internal/auditlog"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/outbox"
	"github.com/tindago/tindago-backend/pkg/pagination"
	"github.com/tindago/tindago-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input auditlog.RecordInput) (*models.AuditLog, error)
}

// VoucherIssuer creates the credit voucher when a discounted order is
// cancelled.
type VoucherIssuer interface {
	Issue(ctx context.Context, tx *gorm.DB, order *models.Order, cancelledBy uuid.UUID) (*models.Voucher, error)
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	Items(ctx context.Context, order *models.Order) ([]types.OrderItemSnapshot, error)
	ListCursor(ctx context.Context, actor types.Actor, params pagination.Params, filters Filters) (*OrderList, error)
	ListOffset(ctx context.Context, actor types.Actor, params pagination.OffsetParams, filters Filters) (*OrderPage, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	audit    auditRecorder
	vouchers VoucherIssuer
}

// UpdateStatusInput captures a transition on either order dimension. At
// least one of Status/PaymentStatus must be set.
type UpdateStatusInput struct {
	OrderID       uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.OrderPaymentStatus
	Actor         types.Actor
}

// CancelInput carries the cancellation context recorded on the order.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  string
	Message string
	Actor   types.Actor
}

// StatusChangedEvent is emitted when either order dimension moves.
type StatusChangedEvent struct {
	OrderID           uuid.UUID                `json:"order_id"`
	OrganizationID    uuid.UUID                `json:"organization_id"`
	Status            enums.OrderStatus        `json:"status"`
	PaymentStatus     enums.OrderPaymentStatus `json:"payment_status"`
	PrevStatus        enums.OrderStatus        `json:"prev_status"`
	PrevPaymentStatus enums.OrderPaymentStatus `json:"prev_payment_status"`
}

// CancelledEvent is emitted when an order is cancelled.
type CancelledEvent struct {
	OrderID        uuid.UUID  `json:"order_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Reason         string     `json:"reason"`
	VoucherID      *uuid.UUID `json:"voucher_id,omitempty"`
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, audit auditRecorder, vouchers VoucherIssuer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if vouchers == nil {
		return nil, fmt.Errorf("voucher issuer required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		audit:    audit,
		vouchers: vouchers,
	}, nil
}

type statusSnapshot struct {
	Status        enums.OrderStatus        `json:"status"`
	PaymentStatus enums.OrderPaymentStatus `json:"payment_status"`
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Status == nil && input.PaymentStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status or payment status required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrderForActor(ctx, repo, input.OrderID, input.Actor)
		if err != nil {
			return err
		}
		if order.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		before := statusSnapshot{Status: order.Status, PaymentStatus: order.PaymentStatus}
		updates := map[string]any{}

		if input.Status != nil {
			if !order.Status.CanTransitionTo(*input.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot transition order from %s to %s", order.Status, *input.Status))
			}
			updates["status"] = *input.Status
		}
		if input.PaymentStatus != nil {
			if !order.PaymentStatus.CanTransitionTo(*input.PaymentStatus) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot transition payment status from %s to %s", order.PaymentStatus, *input.PaymentStatus))
			}
			updates["payment_status"] = *input.PaymentStatus
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if input.Status != nil {
			order.Status = *input.Status
		}
		if input.PaymentStatus != nil {
			order.PaymentStatus = *input.PaymentStatus
		}

		after := statusSnapshot{Status: order.Status, PaymentStatus: order.PaymentStatus}
		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: order.OrganizationID,
			ActorUserID:    input.Actor.UserID,
			ActorRole:      input.Actor.Role,
			Action:         enums.AuditActionOrderStatusChanged,
			EntityType:     "order",
			EntityID:       order.ID,
			Before:         before,
			After:          after,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		updated = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: StatusChangedEvent{
				OrderID:           order.ID,
				OrganizationID:    order.OrganizationID,
				Status:            after.Status,
				PaymentStatus:     after.PaymentStatus,
				PrevStatus:        before.Status,
				PrevPaymentStatus: before.PaymentStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancel reason required")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrderForActor(ctx, repo, input.OrderID, input.Actor)
		if err != nil {
			return err
		}
		if order.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot cancel order in state %s", order.Status))
		}

		before := statusSnapshot{Status: order.Status, PaymentStatus: order.PaymentStatus}

		var voucher *models.Voucher
		if order.DiscountCents > 0 {
			voucher, err = s.vouchers.Issue(ctx, tx, order, input.Actor.UserID)
			if err != nil {
				return err
			}
		}

		updates := map[string]any{
			"status":         enums.OrderStatusCancelled,
			"cancel_reason":  input.Reason,
			"cancel_message": input.Message,
		}
		if voucher != nil {
			updates["voucher_id"] = voucher.ID
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		order.Status = enums.OrderStatusCancelled
		order.CancelReason = &input.Reason
		if input.Message != "" {
			order.CancelMessage = &input.Message
		}
		var voucherID *uuid.UUID
		if voucher != nil {
			id := voucher.ID
			voucherID = &id
			order.VoucherID = &id
		}

		after := statusSnapshot{Status: order.Status, PaymentStatus: order.PaymentStatus}
		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: order.OrganizationID,
			ActorUserID:    input.Actor.UserID,
			ActorRole:      input.Actor.Role,
			Action:         enums.AuditActionOrderCancelled,
			EntityType:     "order",
			EntityID:       order.ID,
			Before:         before,
			After:          after,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		if voucher != nil {
			if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
				OrganizationID: order.OrganizationID,
				ActorUserID:    input.Actor.UserID,
				ActorRole:      input.Actor.Role,
				Action:         enums.AuditActionVoucherIssued,
				EntityType:     "voucher",
				EntityID:       voucher.ID,
				After:          voucher,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record voucher audit entry")
			}
		}

		cancelled = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: CancelledEvent{
				OrderID:        order.ID,
				OrganizationID: order.OrganizationID,
				Reason:         input.Reason,
				VoucherID:      voucherID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := loadOrderForActor(ctx, s.repo, orderID, actor)
	if err != nil {
		return nil, err
	}
	if order.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// Items resolves the purchased lines regardless of representation: small
// orders carry embedded snapshots, larger ones reference order_items rows.
func (s *service) Items(ctx context.Context, order *models.Order) ([]types.OrderItemSnapshot, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if len(order.EmbeddedItems) > 0 {
		return order.EmbeddedItems, nil
	}
	rows, err := s.repo.FindItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	items := make([]types.OrderItemSnapshot, 0, len(rows))
	for _, row := range rows {
		items = append(items, types.OrderItemSnapshot{
			ProductID:      row.ProductID,
			ProductName:    row.ProductName,
			VariantName:    row.VariantName,
			SizeName:       row.SizeName,
			Quantity:       row.Quantity,
			UnitPriceCents: row.UnitPriceCents,
			TotalCents:     row.TotalCents,
		})
	}
	return items, nil
}

func (s *service) ListCursor(ctx context.Context, actor types.Actor, params pagination.Params, filters Filters) (*OrderList, error) {
	if actor.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	list, err := s.repo.ListCursor(ctx, actor.OrgID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListOffset(ctx context.Context, actor types.Actor, params pagination.OffsetParams, filters Filters) (*OrderPage, error) {
	if actor.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	page, err := s.repo.ListOffset(ctx, actor.OrgID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

func loadOrderForActor(ctx context.Context, repo Repository, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.IsAdmin() && order.OrganizationID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to organization")
	}
	return order, nil
}

func buildActor(actor types.Actor) *outbox.ActorRef {
	org := actor.OrgID
	ref := &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   actor.Role.String(),
	}
	if org != uuid.Nil {
		ref.OrgID = &org
	}
	return ref
}

type voucherIssuerImpl struct{}

// NewVoucherIssuer exposes the default voucher issuing implementation.
func NewVoucherIssuer() VoucherIssuer {
	return voucherIssuerImpl{}
}

func (voucherIssuerImpl) Issue(ctx context.Context, tx *gorm.DB, order *models.Order, cancelledBy uuid.UUID) (*models.Voucher, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for voucher issue")
	}
	if order.DiscountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order carries no discount")
	}

	expiry := time.Now().AddDate(0, 6, 0)
	voucher := &models.Voucher{
		Code:               generateVoucherCode(),
		OrganizationID:     order.OrganizationID,
		CustomerID:         order.CustomerID,
		DiscountValueCents: order.DiscountCents,
		SourceOrderID:      order.ID,
		CancelledBy:        cancelledBy,
		ExpiresAt:          &expiry,
	}
	if err := tx.WithContext(ctx).Create(voucher).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create voucher")
	}
	return voucher, nil
}

func generateVoucherCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "VCH-" + raw[:12]
}
