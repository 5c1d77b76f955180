package vouchers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/internal/auditlog"
	"github.com/tindago/tindago-backend/pkg/db"
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

// Service runs the voucher-to-cash refund workflow. Approval converts the
// voucher into a negative payout adjustment picked up by the next
// generation run.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.VoucherRefundRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID, adminMessage string, actor types.Actor) (*models.VoucherRefundRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID, adminMessage string, actor types.Actor) (*models.VoucherRefundRequest, error)
	Get(ctx context.Context, requestID uuid.UUID, actor types.Actor) (*models.VoucherRefundRequest, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, actor types.Actor) ([]models.VoucherRefundRequest, error)
}

// SubmitInput is a customer ask to convert voucher credit into cash.
type SubmitInput struct {
	VoucherID            uuid.UUID
	RequestedAmountCents int
	Actor                types.Actor
}

// DecisionEvent is emitted when an admin decides a refund request.
type DecisionEvent struct {
	RequestID            uuid.UUID `json:"request_id"`
	VoucherID            uuid.UUID `json:"voucher_id"`
	OrganizationID       uuid.UUID `json:"organization_id"`
	CustomerID           uuid.UUID `json:"customer_id"`
	RequestedAmountCents int       `json:"requested_amount_cents"`
	AdminMessage         string    `json:"admin_message,omitempty"`
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	audit  auditRecorder
}

// NewService builds a vouchers service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, audit auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vouchers repository required")
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
	return &service{repo: repo, tx: tx, outbox: outboxSvc, audit: audit}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.VoucherRefundRequest, error) {
	if input.VoucherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher id required")
	}
	if input.RequestedAmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested amount must be positive")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	voucher, err := s.repo.FindVoucherByID(ctx, input.VoucherID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}
	if !input.Actor.IsAdmin() && voucher.CustomerID != input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "voucher belongs to another customer")
	}
	if voucher.IsConsumed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "voucher already consumed")
	}
	if voucher.ExpiresAt != nil && voucher.ExpiresAt.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher expired")
	}
	if input.RequestedAmountCents > voucher.DiscountValueCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested amount exceeds voucher value")
	}

	// Friendly pre-check; the partial unique index closes the race.
	if _, err := s.repo.FindPendingRequestByVoucher(ctx, voucher.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "refund request already pending for voucher")
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending request")
	}

	request := &models.VoucherRefundRequest{
		VoucherID:            voucher.ID,
		OrganizationID:       voucher.OrganizationID,
		CustomerID:           voucher.CustomerID,
		RequestedAmountCents: input.RequestedAmountCents,
		Status:               enums.VoucherRefundStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateRequest(ctx, request); err != nil {
			if db.IsUniqueViolation(err, "ux_voucher_refund_requests_voucher_pending") {
				return pkgerrors.New(pkgerrors.CodeConflict, "refund request already pending for voucher")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund request")
		}
		_, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: voucher.OrganizationID,
			ActorUserID:    input.Actor.UserID,
			ActorRole:      input.Actor.Role,
			Action:         enums.AuditActionVoucherRefundRequest,
			EntityType:     "voucher_refund_request",
			EntityID:       request.ID,
			After:          request,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Approve(ctx context.Context, requestID uuid.UUID, adminMessage string, actor types.Actor) (*models.VoucherRefundRequest, error) {
	return s.decide(ctx, requestID, adminMessage, actor, true)
}

func (s *service) Reject(ctx context.Context, requestID uuid.UUID, adminMessage string, actor types.Actor) (*models.VoucherRefundRequest, error) {
	return s.decide(ctx, requestID, adminMessage, actor, false)
}

func (s *service) decide(ctx context.Context, requestID uuid.UUID, adminMessage string, actor types.Actor, approve bool) (*models.VoucherRefundRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	var request *models.VoucherRefundRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindRequestByID(ctx, requestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund request")
		}
		if loaded.Status != enums.VoucherRefundStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("refund request already %s", loaded.Status))
		}

		now := time.Now().UTC()
		target := enums.VoucherRefundStatusRejected
		action := enums.AuditActionVoucherRefundRejected
		eventType := enums.EventVoucherRefundRejected
		if approve {
			target = enums.VoucherRefundStatusApproved
			action = enums.AuditActionVoucherRefundApproved
			eventType = enums.EventVoucherRefundApproved
		}

		updates := map[string]any{
			"status":      target,
			"reviewed_by": actor.UserID,
			"reviewed_at": now,
		}
		if adminMessage != "" {
			updates["admin_message"] = adminMessage
		}
		if err := repo.UpdateRequest(ctx, requestID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund request")
		}

		if approve {
			// The adjustment debits the next payout run; the voucher can
			// no longer be spent at checkout.
			adjustment := &models.PayoutAdjustment{
				OrganizationID:  loaded.OrganizationID,
				Kind:            enums.AdjustmentKindVoucherRefund,
				AmountCents:     -loaded.RequestedAmountCents,
				Reason:          fmt.Sprintf("voucher refund %s", loaded.VoucherID),
				EffectiveAt:     now,
				SourceRequestID: &loaded.ID,
				CreatedBy:       actor.UserID,
			}
			if _, err := repo.CreateAdjustment(ctx, adjustment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout adjustment")
			}
			if err := repo.UpdateVoucher(ctx, loaded.VoucherID, map[string]any{"is_consumed": true}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume voucher")
			}
		}

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: loaded.OrganizationID,
			ActorUserID:    actor.UserID,
			ActorRole:      actor.Role,
			Action:         action,
			EntityType:     "voucher_refund_request",
			EntityID:       loaded.ID,
			Before:         map[string]any{"status": enums.VoucherRefundStatusPending},
			After:          map[string]any{"status": target},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		loaded.Status = target
		loaded.ReviewedBy = &actor.UserID
		loaded.ReviewedAt = &now
		if adminMessage != "" {
			loaded.AdminMessage = &adminMessage
		}
		request = loaded

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateVoucherRefundRequest,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: DecisionEvent{
				RequestID:            loaded.ID,
				VoucherID:            loaded.VoucherID,
				OrganizationID:       loaded.OrganizationID,
				CustomerID:           loaded.CustomerID,
				RequestedAmountCents: loaded.RequestedAmountCents,
				AdminMessage:         adminMessage,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Get(ctx context.Context, requestID uuid.UUID, actor types.Actor) (*models.VoucherRefundRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund request")
	}
	if !actor.IsAdmin() && request.CustomerID != actor.UserID && request.OrganizationID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return request, nil
}

func (s *service) ListByOrganization(ctx context.Context, orgID uuid.UUID, actor types.Actor) ([]models.VoucherRefundRequest, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	if !actor.IsAdmin() && orgID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization mismatch")
	}
	requests, err := s.repo.ListRequestsByOrganization(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refund requests")
	}
	return requests, nil
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	org := actor.OrgID
	ref := &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
	if org != uuid.Nil {
		ref.OrgID = &org
	}
	return ref
}
