package batches

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/types"
)

// Repository defines persistence operations for order batches, including the
// order scans the membership recompute relies on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, batch *models.OrderBatch) (*models.OrderBatch, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderBatch, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrderBatch, error)
	FindOrdersInRange(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]models.Order, error)
	FindOrdersLabeled(ctx context.Context, orgID uuid.UUID, batchID uuid.UUID) ([]models.Order, error)
	UpdateOrderBatchIDs(ctx context.Context, orderID uuid.UUID, batchIDs types.UUIDList) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a batches repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, batch *models.OrderBatch) (*models.OrderBatch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderBatch, error) {
	var batch models.OrderBatch
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderBatch{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.OrderBatch, error) {
	var batches []models.OrderBatch
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_deleted = ?", orgID, false).
		Order("start_date DESC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repository) FindOrdersInRange(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_deleted = ?", orgID, false).
		Where("order_date >= ? AND order_date < ?", start, end).
		Order("order_date ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindOrdersLabeled matches against the serialized jsonb list. The cast keeps
// the query valid on both Postgres and SQLite.
func (r *repository) FindOrdersLabeled(ctx context.Context, orgID uuid.UUID, batchID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Where("CAST(batch_ids AS TEXT) LIKE ?", fmt.Sprintf("%%%s%%", batchID)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateOrderBatchIDs(ctx context.Context, orderID uuid.UUID, batchIDs types.UUIDList) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("batch_ids", batchIDs).Error
}
