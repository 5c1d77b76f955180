package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/internal/auditlog"
	"github.com/tindago/tindago-backend/internal/orders"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/outbox"
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

// Service defines payment review operations. Verification recomputes the
// owning order's payment status inside the same transaction.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Payment, error)
	Verify(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error)
	Decline(ctx context.Context, paymentID uuid.UUID, reason string, actor types.Actor) (*models.Payment, error)
	StartRefund(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error)
	CompleteRefund(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID, actor types.Actor) ([]models.Payment, error)
	ExpireStalePending(ctx context.Context, cutoff time.Time) (int, error)
}

type service struct {
	repo   Repository
	orders orders.Repository
	tx     txRunner
	outbox outboxPublisher
	audit  auditRecorder
}

// RecordInput captures a reported payment awaiting review.
type RecordInput struct {
	OrderID         uuid.UUID
	AmountCents     int
	Method          enums.PaymentMethod
	ReferenceNumber *string
	Metadata        types.JSONMap
	Actor           types.Actor
}

// VerifiedEvent is emitted when an admin verifies a payment.
type VerifiedEvent struct {
	PaymentID          uuid.UUID                `json:"payment_id"`
	OrderID            uuid.UUID                `json:"order_id"`
	OrganizationID     uuid.UUID                `json:"organization_id"`
	AmountCents        int                      `json:"amount_cents"`
	OrderPaymentStatus enums.OrderPaymentStatus `json:"order_payment_status"`
}

// DeclinedEvent is emitted when an admin declines a payment.
type DeclinedEvent struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	OrderID        uuid.UUID `json:"order_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Reason         string    `json:"reason"`
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner, outboxSvc outboxPublisher, audit auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
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
	return &service{
		repo:   repo,
		orders: ordersRepo,
		tx:     tx,
		outbox: outboxSvc,
		audit:  audit,
	}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Payment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var created *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.PaymentStatus.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order payment dimension is terminal")
		}

		payment := &models.Payment{
			OrderID:          order.ID,
			OrganizationID:   order.OrganizationID,
			CustomerID:       order.CustomerID,
			AmountCents:      input.AmountCents,
			Currency:         order.Currency,
			Method:           input.Method,
			ProviderMetadata: input.Metadata,
			State:            enums.PaymentStatePending,
			ReferenceNumber:  input.ReferenceNumber,
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: order.OrganizationID,
			ActorUserID:    input.Actor.UserID,
			ActorRole:      input.Actor.Role,
			Action:         enums.AuditActionPaymentRecorded,
			EntityType:     "payment",
			EntityID:       payment.ID,
			After:          payment,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Verify(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error) {
	if err := requireAdmin(paymentID, actor); err != nil {
		return nil, err
	}

	var verified *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := loadPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		if !payment.State.CanTransitionTo(enums.PaymentStateVerified) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot verify payment in state %s", payment.State))
		}

		before := payment.State
		now := time.Now()
		if err := repo.Update(ctx, payment.ID, map[string]any{
			"state":       enums.PaymentStateVerified,
			"verified_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment state")
		}
		payment.State = enums.PaymentStateVerified
		payment.VerifiedAt = &now

		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.FindByID(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		verifiedTotal, err := repo.SumVerifiedByOrder(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum verified payments")
		}

		target := order.PaymentStatus
		switch {
		case verifiedTotal >= order.TotalCents:
			target = enums.OrderPaymentStatusPaid
		case verifiedTotal > 0:
			target = enums.OrderPaymentStatusDownpayment
		}
		if target != order.PaymentStatus && order.PaymentStatus.CanTransitionTo(target) {
			if err := ordersRepo.Update(ctx, order.ID, map[string]any{"payment_status": target}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment status")
			}
			order.PaymentStatus = target
		}

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: payment.OrganizationID,
			ActorUserID:    actor.UserID,
			ActorRole:      actor.Role,
			Action:         enums.AuditActionPaymentVerified,
			EntityType:     "payment",
			EntityID:       payment.ID,
			Before:         map[string]any{"state": before},
			After:          map[string]any{"state": payment.State, "order_payment_status": order.PaymentStatus},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		verified = payment
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentVerified,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: VerifiedEvent{
				PaymentID:          payment.ID,
				OrderID:            payment.OrderID,
				OrganizationID:     payment.OrganizationID,
				AmountCents:        payment.AmountCents,
				OrderPaymentStatus: order.PaymentStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return verified, nil
}

func (s *service) Decline(ctx context.Context, paymentID uuid.UUID, reason string, actor types.Actor) (*models.Payment, error) {
	if err := requireAdmin(paymentID, actor); err != nil {
		return nil, err
	}

	var declined *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := loadPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		if !payment.State.CanTransitionTo(enums.PaymentStateDeclined) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot decline payment in state %s", payment.State))
		}

		before := payment.State
		updates := map[string]any{"state": enums.PaymentStateDeclined}
		if reason != "" {
			updates["failure_reason"] = reason
		}
		if err := repo.Update(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment state")
		}
		payment.State = enums.PaymentStateDeclined
		if reason != "" {
			payment.FailureReason = &reason
		}

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: payment.OrganizationID,
			ActorUserID:    actor.UserID,
			ActorRole:      actor.Role,
			Action:         enums.AuditActionPaymentDeclined,
			EntityType:     "payment",
			EntityID:       payment.ID,
			Before:         map[string]any{"state": before},
			After:          map[string]any{"state": payment.State},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		declined = payment
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentDeclined,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: DeclinedEvent{
				PaymentID:      payment.ID,
				OrderID:        payment.OrderID,
				OrganizationID: payment.OrganizationID,
				Reason:         reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return declined, nil
}

func (s *service) StartRefund(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error) {
	return s.refundTransition(ctx, paymentID, actor, enums.PaymentStateRefundPending)
}

func (s *service) CompleteRefund(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error) {
	return s.refundTransition(ctx, paymentID, actor, enums.PaymentStateRefunded)
}

func (s *service) refundTransition(ctx context.Context, paymentID uuid.UUID, actor types.Actor, target enums.PaymentState) (*models.Payment, error) {
	if err := requireAdmin(paymentID, actor); err != nil {
		return nil, err
	}

	var result *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := loadPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		if !payment.State.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move payment from %s to %s", payment.State, target))
		}

		before := payment.State
		if err := repo.Update(ctx, payment.ID, map[string]any{"state": target}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment state")
		}
		payment.State = target

		if target == enums.PaymentStateRefunded {
			ordersRepo := s.orders.WithTx(tx)
			order, err := ordersRepo.FindByID(ctx, payment.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			if order.PaymentStatus.CanTransitionTo(enums.OrderPaymentStatusRefunded) {
				if err := ordersRepo.Update(ctx, order.ID, map[string]any{
					"payment_status": enums.OrderPaymentStatusRefunded,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment status")
				}
			}
		}

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: payment.OrganizationID,
			ActorUserID:    actor.UserID,
			ActorRole:      actor.Role,
			Action:         enums.AuditActionPaymentRefunded,
			EntityType:     "payment",
			EntityID:       payment.ID,
			Before:         map[string]any{"state": before},
			After:          map[string]any{"state": payment.State},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID, actor types.Actor) ([]models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.IsAdmin() && order.OrganizationID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to organization")
	}
	payments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return payments, nil
}

// ExpireStalePending cancels payments stuck in pending past the cutoff.
// Per-payment failures are accumulated so one bad row cannot block the rest.
func (s *service) ExpireStalePending(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale payments")
	}

	var errs error
	expired := 0
	for _, payment := range stale {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).Update(ctx, payment.ID, map[string]any{
				"state":          enums.PaymentStateCancelled,
				"failure_reason": "expired: pending past TTL",
			})
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire payment %s: %w", payment.ID, err))
			continue
		}
		expired++
	}
	return expired, errs
}

func requireAdmin(paymentID uuid.UUID, actor types.Actor) error {
	if paymentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func loadPayment(ctx context.Context, repo Repository, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := repo.FindByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	org := actor.OrgID
	ref := &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
	if org != uuid.Nil {
		ref.OrgID = &org
	}
	return ref
}
