package models

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a non-monetary credit issued when an order with a discount is
// cancelled. It can be spent at checkout or converted to cash through the
// refund workflow, which consumes it.
type Voucher struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string     `gorm:"column:code;not null;uniqueIndex"`
	OrganizationID     uuid.UUID  `gorm:"column:organization_id;type:uuid;not null"`
	CustomerID         uuid.UUID  `gorm:"column:customer_id;type:uuid;not null"`
	DiscountValueCents int        `gorm:"column:discount_value_cents;not null"`
	SourceOrderID      uuid.UUID  `gorm:"column:source_order_id;type:uuid;not null;index"`
	CancelledBy        uuid.UUID  `gorm:"column:cancelled_by;type:uuid;not null"`
	IsConsumed         bool       `gorm:"column:is_consumed;not null;default:false"`
	ExpiresAt          *time.Time `gorm:"column:expires_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
