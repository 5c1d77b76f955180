package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
)

// AuditLog is an append-only record of a core mutation, carrying the
// before/after snapshots of whatever changed. Rows are never updated.
type AuditLog struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;index"`
	ActorUserID    uuid.UUID         `gorm:"column:actor_user_id;type:uuid;not null"`
	ActorRole      enums.ActorRole   `gorm:"column:actor_role;type:text;not null"`
	Action         enums.AuditAction `gorm:"column:action;type:text;not null"`
	EntityType     string            `gorm:"column:entity_type;not null"`
	EntityID       uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index:idx_audit_logs_entity"`
	Before         json.RawMessage   `gorm:"column:before;type:jsonb"`
	After          json.RawMessage   `gorm:"column:after;type:jsonb"`
	Metadata       json.RawMessage   `gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}
