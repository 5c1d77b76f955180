package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
)

// Service defines operations that record audit entries. Entries are
// append-only; there is no update or delete surface.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.AuditLog, error)
	ListByEntityID(ctx context.Context, entityID uuid.UUID) ([]models.AuditLog, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]models.AuditLog, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data an audit entry requires. Before
// and After hold JSON snapshots of the mutated entity.
type RecordInput struct {
	OrganizationID uuid.UUID         `json:"organization_id"`
	ActorUserID    uuid.UUID         `json:"actor_user_id"`
	ActorRole      enums.ActorRole   `json:"actor_role"`
	Action         enums.AuditAction `json:"action"`
	EntityType     string            `json:"entity_type"`
	EntityID       uuid.UUID         `json:"entity_id"`
	Before         any               `json:"before"`
	After          any               `json:"after"`
	Metadata       json.RawMessage   `json:"metadata"`
}

// NewService wires an audit log service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auditlog repository required")
	}
	return &service{repo: repo}, nil
}

// Record writes one audit entry. When tx is non-nil the entry joins the
// caller's transaction so it commits atomically with the mutation it
// describes.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.AuditLog, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, fmt.Errorf("organization id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, fmt.Errorf("actor user id is required")
	}
	if !input.ActorRole.IsValid() {
		return nil, fmt.Errorf("invalid actor role %q", input.ActorRole)
	}
	if !input.Action.IsValid() {
		return nil, fmt.Errorf("invalid audit action %q", input.Action)
	}
	if input.EntityType == "" {
		return nil, fmt.Errorf("entity type is required")
	}
	if input.EntityID == uuid.Nil {
		return nil, fmt.Errorf("entity id is required")
	}

	before, err := marshalSnapshot(input.Before)
	if err != nil {
		return nil, fmt.Errorf("marshal before snapshot: %w", err)
	}
	after, err := marshalSnapshot(input.After)
	if err != nil {
		return nil, fmt.Errorf("marshal after snapshot: %w", err)
	}

	entry := &models.AuditLog{
		OrganizationID: input.OrganizationID,
		ActorUserID:    input.ActorUserID,
		ActorRole:      input.ActorRole,
		Action:         input.Action,
		EntityType:     input.EntityType,
		EntityID:       input.EntityID,
		Before:         before,
		After:          after,
		Metadata:       input.Metadata,
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListByEntityID(ctx context.Context, entityID uuid.UUID) ([]models.AuditLog, error) {
	if entityID == uuid.Nil {
		return nil, fmt.Errorf("entity id is required")
	}
	return s.repo.ListByEntityID(ctx, entityID)
}

func (s *service) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("organization id is required")
	}
	return s.repo.ListByOrganization(ctx, orgID, limit)
}

func marshalSnapshot(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
