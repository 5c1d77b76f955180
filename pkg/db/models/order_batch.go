package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/types"
)

// OrderBatch is a named date-range label for operational grouping. It is
// distinct from payout periods; any number of active batches may contain a
// given order date. The range is half-open: [StartDate, EndDate).
type OrderBatch struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID      `gorm:"column:organization_id;type:uuid;not null;index"`
	Name           string         `gorm:"column:name;not null"`
	Description    string         `gorm:"column:description"`
	StartDate      time.Time      `gorm:"column:start_date;not null"`
	EndDate        time.Time      `gorm:"column:end_date;not null"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	IsDeleted      bool           `gorm:"column:is_deleted;not null;default:false"`
	StatusCounts   types.JSONMap  `gorm:"column:status_counts;type:jsonb;serializer:json"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
