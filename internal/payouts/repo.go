package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
)

// Repository defines persistence operations for payout invoices,
// adjustments and the organization rows the generator reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateInvoice(ctx context.Context, invoice *models.PayoutInvoice) (*models.PayoutInvoice, error)
	FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.PayoutInvoice, error)
	FindLiveInvoiceByPeriod(ctx context.Context, orgID uuid.UUID, periodStart time.Time) (*models.PayoutInvoice, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListInvoicesByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.PayoutInvoice, error)
	CountInvoicesByPeriod(ctx context.Context, orgID uuid.UUID, periodStart time.Time) (int64, error)

	FindPaidOrdersInPeriod(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]models.Order, error)
	FindOrderItemsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderItem, error)

	FindUnconsumedAdjustments(ctx context.Context, orgID uuid.UUID, before time.Time) ([]models.PayoutAdjustment, error)
	MarkAdjustmentsConsumed(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error

	FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.PayoutInvoice) (*models.PayoutInvoice, error) {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *repository) FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.PayoutInvoice, error) {
	var invoice models.PayoutInvoice
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) FindLiveInvoiceByPeriod(ctx context.Context, orgID uuid.UUID, periodStart time.Time) (*models.PayoutInvoice, error) {
	var invoice models.PayoutInvoice
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND period_start = ? AND status <> ?",
			orgID, periodStart, enums.PayoutInvoiceStatusCancelled).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) UpdateInvoice(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutInvoice{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListInvoicesByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.PayoutInvoice, error) {
	var invoices []models.PayoutInvoice
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("period_start DESC, created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) CountInvoicesByPeriod(ctx context.Context, orgID uuid.UUID, periodStart time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PayoutInvoice{}).
		Where("organization_id = ? AND period_start = ?", orgID, periodStart).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) FindPaidOrdersInPeriod(ctx context.Context, orgID uuid.UUID, start, end time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_deleted = ?", orgID, false).
		Where("payment_status = ?", enums.OrderPaymentStatusPaid).
		Where("order_date >= ? AND order_date < ?", start, end).
		Order("order_date ASC, created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindOrderItemsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindUnconsumedAdjustments(ctx context.Context, orgID uuid.UUID, before time.Time) ([]models.PayoutAdjustment, error) {
	var adjustments []models.PayoutAdjustment
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND invoice_id IS NULL AND effective_at < ?", orgID, before).
		Order("effective_at ASC").
		Find(&adjustments).Error
	if err != nil {
		return nil, err
	}
	return adjustments, nil
}

func (r *repository) MarkAdjustmentsConsumed(ctx context.Context, ids []uuid.UUID, invoiceID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PayoutAdjustment{}).
		Where("id IN ? AND invoice_id IS NULL", ids).
		Update("invoice_id", invoiceID).Error
}

func (r *repository) FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) UpdateOrganization(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}
