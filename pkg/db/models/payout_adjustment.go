package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
)

// PayoutAdjustment is a signed manual correction against an organization's
// next payout. Rows stay unconsumed until a generation run claims them by
// stamping InvoiceID inside the generation transaction.
type PayoutAdjustment struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID  uuid.UUID            `gorm:"column:organization_id;type:uuid;not null;index"`
	Kind            enums.AdjustmentKind `gorm:"column:kind;type:adjustment_kind;not null"`
	AmountCents     int                  `gorm:"column:amount_cents;not null"`
	Reason          string               `gorm:"column:reason;not null"`
	EffectiveAt     time.Time            `gorm:"column:effective_at;not null"`
	InvoiceID       *uuid.UUID           `gorm:"column:invoice_id;type:uuid"`
	SourceRequestID *uuid.UUID           `gorm:"column:source_request_id;type:uuid"`
	CreatedBy       uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
}
