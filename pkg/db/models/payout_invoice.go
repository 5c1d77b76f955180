package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tindago/tindago-backend/pkg/enums"
)

// PayoutInvoice is the financial statement of record for one organization
// over one weekly period. Financial fields are immutable once the row is
// inserted; corrections flow through adjustments or a superseding invoice.
// A partial unique index on (organization_id, period_start) for
// non-cancelled rows enforces one live invoice per period.
type PayoutInvoice struct {
	ID                    uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID        uuid.UUID                 `gorm:"column:organization_id;type:uuid;not null;index"`
	InvoiceNumber         string                    `gorm:"column:invoice_number;not null;uniqueIndex"`
	PeriodStart           time.Time                 `gorm:"column:period_start;not null"`
	PeriodEnd             time.Time                 `gorm:"column:period_end;not null"`
	GrossCents            int                       `gorm:"column:gross_cents;not null"`
	PlatformFeePercentage decimal.Decimal           `gorm:"column:platform_fee_percentage;type:numeric(5,2);not null"`
	PlatformFeeCents      int                       `gorm:"column:platform_fee_cents;not null"`
	VoucherDiscountCents  int                       `gorm:"column:voucher_discount_cents;not null;default:0"`
	AdjustmentCents       int                       `gorm:"column:adjustment_cents;not null;default:0"`
	AdjustmentCount       int                       `gorm:"column:adjustment_count;not null;default:0"`
	NetCents              int                       `gorm:"column:net_cents;not null"`
	OrderCount            int                       `gorm:"column:order_count;not null"`
	ItemCount             int                       `gorm:"column:item_count;not null"`
	OrderSummary          json.RawMessage           `gorm:"column:order_summary;type:jsonb"`
	ProductSummary        json.RawMessage           `gorm:"column:product_summary;type:jsonb"`
	Status                enums.PayoutInvoiceStatus `gorm:"column:status;type:payout_invoice_status;not null;default:'pending'"`
	PaidAt                *time.Time                `gorm:"column:paid_at"`
	PaymentReference      *string                   `gorm:"column:payment_reference"`
	PaymentNotes          *string                   `gorm:"column:payment_notes"`
	DocumentURL           *string                   `gorm:"column:document_url"`
	CreatedAt             time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
