package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
	"github.com/tindago/tindago-backend/pkg/types"
)

// Order is a customer purchase owned by the seller organization. Orders are
// never physically deleted; payout computations must stay reproducible
// against historical rows, so removal is a soft-delete flag.
type Order struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID    uuid.UUID                `gorm:"column:organization_id;type:uuid;not null;index:idx_orders_org_status"`
	CustomerID        uuid.UUID                `gorm:"column:customer_id;type:uuid;not null"`
	CustomerName      string                   `gorm:"column:customer_name;not null"`
	OrderNumber       int64                    `gorm:"column:order_number;not null"`
	EmbeddedItems     types.OrderItemSnapshots `gorm:"column:embedded_items;type:jsonb;serializer:json"`
	TotalCents        int                      `gorm:"column:total_cents;not null"`
	DiscountCents     int                      `gorm:"column:discount_cents;not null;default:0"`
	ItemCount         int                      `gorm:"column:item_count;not null"`
	Currency          enums.Currency           `gorm:"column:currency;type:text;not null;default:'PHP'"`
	Status            enums.OrderStatus        `gorm:"column:status;type:order_status;not null;default:'pending';index:idx_orders_org_status"`
	PaymentStatus     enums.OrderPaymentStatus `gorm:"column:payment_status;type:order_payment_status;not null;default:'pending'"`
	OrderDate         time.Time                `gorm:"column:order_date;not null"`
	IsDeleted         bool                     `gorm:"column:is_deleted;not null;default:false"`
	BatchIDs          types.UUIDList           `gorm:"column:batch_ids;type:jsonb;serializer:json"`
	VoucherID         *uuid.UUID               `gorm:"column:voucher_id;type:uuid"`
	SurveyResponseID  *uuid.UUID               `gorm:"column:survey_response_id;type:uuid"`
	CheckoutSessionID *uuid.UUID               `gorm:"column:checkout_session_id;type:uuid"`
	CancelReason      *string                  `gorm:"column:cancel_reason"`
	CancelMessage     *string                  `gorm:"column:cancel_message"`
	Items             []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
