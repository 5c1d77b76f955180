package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
	"github.com/tindago/tindago-backend/pkg/types"
)

// Payment is one reported attempt to pay for an order, or part of it.
// Several payments may exist per order (downpayment plus balance).
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	OrganizationID   uuid.UUID           `gorm:"column:organization_id;type:uuid;not null"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	AmountCents      int                 `gorm:"column:amount_cents;not null"`
	Currency         enums.Currency      `gorm:"column:currency;type:text;not null;default:'PHP'"`
	Method           enums.PaymentMethod `gorm:"column:method;type:payment_method;not null;default:'cash'"`
	ProviderMetadata types.JSONMap       `gorm:"column:provider_metadata;type:jsonb;serializer:json"`
	State            enums.PaymentState  `gorm:"column:state;type:payment_state;not null;default:'pending'"`
	ReferenceNumber  *string             `gorm:"column:reference_number"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	VerifiedAt       *time.Time          `gorm:"column:verified_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
