package batches

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/internal/auditlog"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input auditlog.RecordInput) (*models.AuditLog, error)
}

// Service manages date-range batch labels on orders. Membership is
// denormalized onto orders as a batch id list and recomputed on every
// create and update.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.OrderBatch, error)
	Update(ctx context.Context, batchID uuid.UUID, input UpdateInput) (*models.OrderBatch, error)
	Delete(ctx context.Context, batchID uuid.UUID, actor types.Actor) error
	Get(ctx context.Context, batchID uuid.UUID, actor types.Actor) (*models.OrderBatch, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrderBatch, error)
}

// CreateInput describes a new batch. The date range is half-open.
type CreateInput struct {
	OrganizationID uuid.UUID
	Name           string
	Description    string
	StartDate      time.Time
	EndDate        time.Time
	Actor          types.Actor
}

// UpdateInput carries optional batch mutations. Nil fields are untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    *bool
	Actor       types.Actor
}

type service struct {
	repo  Repository
	tx    txRunner
	audit auditRecorder
}

// NewService builds a batches service with the required dependencies.
func NewService(repo Repository, tx txRunner, audit auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batches repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, tx: tx, audit: audit}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.OrderBatch, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch name required")
	}
	if !input.StartDate.Before(input.EndDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date must be before end date")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	batch := &models.OrderBatch{
		OrganizationID: input.OrganizationID,
		Name:           input.Name,
		Description:    input.Description,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		IsActive:       true,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create batch")
		}
		_, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: input.OrganizationID,
			ActorUserID:    input.Actor.UserID,
			ActorRole:      input.Actor.Role,
			Action:         enums.AuditActionBatchCreated,
			EntityType:     "order_batch",
			EntityID:       batch.ID,
			After:          batch,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Labelling happens outside the batch transaction so a bad order row
	// cannot roll back the batch itself. Failures surface to the caller.
	if err := s.recomputeMembership(ctx, batch); err != nil {
		return batch, err
	}
	return batch, nil
}

func (s *service) Update(ctx context.Context, batchID uuid.UUID, input UpdateInput) (*models.OrderBatch, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	batch, err := s.loadBatch(ctx, batchID, input.Actor)
	if err != nil {
		return nil, err
	}

	start := batch.StartDate
	end := batch.EndDate
	if input.StartDate != nil {
		start = *input.StartDate
	}
	if input.EndDate != nil {
		end = *input.EndDate
	}
	if !start.Before(end) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date must be before end date")
	}

	updates := map[string]any{"start_date": start, "end_date": end}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch name required")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	before := *batch
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, batchID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update batch")
		}
		_, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: batch.OrganizationID,
			ActorUserID:    input.Actor.UserID,
			ActorRole:      input.Actor.Role,
			Action:         enums.AuditActionBatchUpdated,
			EntityType:     "order_batch",
			EntityID:       batchID,
			Before:         before,
			After:          updates,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.StartDate = start
	batch.EndDate = end
	if input.Name != nil {
		batch.Name = *input.Name
	}
	if input.Description != nil {
		batch.Description = *input.Description
	}
	if input.IsActive != nil {
		batch.IsActive = *input.IsActive
	}

	if batch.IsActive {
		if err := s.recomputeMembership(ctx, batch); err != nil {
			return batch, err
		}
	}
	return batch, nil
}

// Delete soft-deletes the batch. Labels already denormalized onto orders are
// kept so historical listings stay reproducible.
func (s *service) Delete(ctx context.Context, batchID uuid.UUID, actor types.Actor) error {
	if batchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	batch, err := s.loadBatch(ctx, batchID, actor)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		err := s.repo.WithTx(tx).Update(ctx, batchID, map[string]any{
			"is_deleted": true,
			"is_active":  false,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete batch")
		}
		_, err = s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: batch.OrganizationID,
			ActorUserID:    actor.UserID,
			ActorRole:      actor.Role,
			Action:         enums.AuditActionBatchDeleted,
			EntityType:     "order_batch",
			EntityID:       batchID,
			Before:         batch,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, batchID uuid.UUID, actor types.Actor) (*models.OrderBatch, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	return s.loadBatch(ctx, batchID, actor)
}

func (s *service) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrderBatch, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	batches, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list batches")
	}
	return batches, nil
}

// recomputeMembership adds the batch label to org orders inside the range,
// strips it from labeled orders that left the range, and refreshes the
// status counts. Per-order failures are accumulated so one broken row does
// not block the rest.
func (s *service) recomputeMembership(ctx context.Context, batch *models.OrderBatch) error {
	var errs error

	inRange, err := s.repo.FindOrdersInRange(ctx, batch.OrganizationID, batch.StartDate, batch.EndDate)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan orders in range")
	}
	member := make(map[uuid.UUID]bool, len(inRange))
	for i := range inRange {
		order := &inRange[i]
		member[order.ID] = true
		if order.BatchIDs.Contains(batch.ID) {
			continue
		}
		if err := s.repo.UpdateOrderBatchIDs(ctx, order.ID, order.BatchIDs.Add(batch.ID)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("label order %s: %w", order.ID, err))
		}
	}

	labeled, err := s.repo.FindOrdersLabeled(ctx, batch.OrganizationID, batch.ID)
	if err != nil {
		return multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan labeled orders"))
	}
	for i := range labeled {
		order := &labeled[i]
		if member[order.ID] || !order.BatchIDs.Contains(batch.ID) {
			continue
		}
		if err := s.repo.UpdateOrderBatchIDs(ctx, order.ID, order.BatchIDs.Remove(batch.ID)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unlabel order %s: %w", order.ID, err))
		}
	}

	counts := types.JSONMap{}
	for i := range inRange {
		counts[inRange[i].Status.String()] = toInt(counts[inRange[i].Status.String()]) + 1
	}
	if err := s.repo.Update(ctx, batch.ID, map[string]any{"status_counts": counts}); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("refresh status counts: %w", err))
	} else {
		batch.StatusCounts = counts
	}
	return errs
}

func (s *service) loadBatch(ctx context.Context, batchID uuid.UUID, actor types.Actor) (*models.OrderBatch, error) {
	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	if batch.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
	}
	if !actor.IsAdmin() && batch.OrganizationID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "batch does not belong to organization")
	}
	return batch, nil
}

func toInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
