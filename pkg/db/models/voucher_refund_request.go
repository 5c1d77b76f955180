package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
)

// VoucherRefundRequest is a customer ask to convert a voucher credit into a
// cash refund. A partial unique index on (voucher_id) for pending rows
// enforces one active request per voucher. The admin decision is terminal.
type VoucherRefundRequest struct {
	ID                   uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VoucherID            uuid.UUID                 `gorm:"column:voucher_id;type:uuid;not null;index"`
	OrganizationID       uuid.UUID                 `gorm:"column:organization_id;type:uuid;not null;index"`
	CustomerID           uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null"`
	RequestedAmountCents int                       `gorm:"column:requested_amount_cents;not null"`
	Status               enums.VoucherRefundStatus `gorm:"column:status;type:voucher_refund_status;not null;default:'pending'"`
	AdminMessage         *string                   `gorm:"column:admin_message"`
	ReviewedBy           *uuid.UUID                `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt           *time.Time                `gorm:"column:reviewed_at"`
	CreatedAt            time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
