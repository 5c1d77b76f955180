package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organization is a seller tenant. It owns orders, payments and payout
// invoices; the platform fee percentage is captured here so historical
// invoices stay reproducible when the fee changes.
type Organization struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                  string          `gorm:"column:name;not null"`
	Slug                  string          `gorm:"column:slug;not null;uniqueIndex"`
	PlatformFeePercentage decimal.Decimal `gorm:"column:platform_fee_percentage;type:numeric(5,2);not null"`
	BankName              *string         `gorm:"column:bank_name"`
	BankAccountName       *string         `gorm:"column:bank_account_name"`
	BankAccountNumber     *string         `gorm:"column:bank_account_number"`
	BankCode              *string         `gorm:"column:bank_code"`
	NotificationEmail     *string         `gorm:"column:notification_email"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
