package vouchers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
)

// Repository defines persistence operations for vouchers and their refund
// requests, plus the adjustment insert an approval produces.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindVoucherByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	UpdateVoucher(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateRequest(ctx context.Context, request *models.VoucherRefundRequest) (*models.VoucherRefundRequest, error)
	FindRequestByID(ctx context.Context, id uuid.UUID) (*models.VoucherRefundRequest, error)
	UpdateRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindPendingRequestByVoucher(ctx context.Context, voucherID uuid.UUID) (*models.VoucherRefundRequest, error)
	ListRequestsByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.VoucherRefundRequest, error)

	CreateAdjustment(ctx context.Context, adjustment *models.PayoutAdjustment) (*models.PayoutAdjustment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vouchers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVoucherByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&voucher).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) UpdateVoucher(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateRequest(ctx context.Context, request *models.VoucherRefundRequest) (*models.VoucherRefundRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindRequestByID(ctx context.Context, id uuid.UUID) (*models.VoucherRefundRequest, error) {
	var request models.VoucherRefundRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) UpdateRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VoucherRefundRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindPendingRequestByVoucher(ctx context.Context, voucherID uuid.UUID) (*models.VoucherRefundRequest, error) {
	var request models.VoucherRefundRequest
	err := r.db.WithContext(ctx).
		Where("voucher_id = ? AND status = ?", voucherID, enums.VoucherRefundStatusPending).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListRequestsByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.VoucherRefundRequest, error) {
	var requests []models.VoucherRefundRequest
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) CreateAdjustment(ctx context.Context, adjustment *models.PayoutAdjustment) (*models.PayoutAdjustment, error) {
	if err := r.db.WithContext(ctx).Create(adjustment).Error; err != nil {
		return nil, err
	}
	return adjustment, nil
}
