package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID         uuid.UUID
	OrganizationID *uuid.UUID
	Role           enums.ActorRole
	JTI            string
}

// AccessTokenClaims represents the typed JWT issued to clients. Admins carry
// no organization; sellers and customers always do.
type AccessTokenClaims struct {
	UserID         uuid.UUID       `json:"user_id"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	Role           enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
