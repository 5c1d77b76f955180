package types

import (
	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
)

// Actor identifies the authenticated principal performing a mutation. It is
// threaded from middleware into services for audit and outbox attribution.
type Actor struct {
	UserID uuid.UUID       `json:"user_id"`
	OrgID  uuid.UUID       `json:"org_id"`
	Role   enums.ActorRole `json:"role"`
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}
