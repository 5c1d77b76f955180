package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/types"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxOrgID  contextKey = "org_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func OrgIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOrgID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithActor seeds the context the way Auth does. Test helper for handlers
// that expect an authenticated request.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, string(actor.Role))
	if actor.OrgID != uuid.Nil {
		ctx = context.WithValue(ctx, ctxOrgID, actor.OrgID.String())
	}
	return ctx
}

// ActorFromContext rebuilds the authenticated actor stored by Auth.
func ActorFromContext(ctx context.Context) (types.Actor, error) {
	rawUser := UserIDFromContext(ctx)
	if rawUser == "" {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return types.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseActorRole(RoleFromContext(ctx))
	if err != nil {
		return types.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}

	actor := types.Actor{UserID: userID, Role: role}
	if rawOrg := OrgIDFromContext(ctx); rawOrg != "" {
		orgID, err := uuid.Parse(rawOrg)
		if err != nil {
			return types.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid organization id")
		}
		actor.OrgID = orgID
	}
	return actor, nil
}
