// Package authctx carries the resolved actor for a request: who is acting,
// with which role, and which store (if any) they own. Core services read
// these facts from the context instead of re-deriving them per handler.
package authctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Role is a marketplace user role.
type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleArtisan Role = "artisan"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleArtisan, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor is the authenticated subject of a request.
type Actor struct {
	UserID  snowflake.ID
	Role    Role
	StoreID snowflake.ID // zero when the actor owns no store
}

func (a Actor) OwnsStore(storeID snowflake.ID) bool {
	return a.StoreID != 0 && a.StoreID == storeID
}

type actorKey struct{}

// WithActor stores the resolved actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the resolved actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.UserID == 0 {
		return Actor{}, false
	}
	return actor, true
}
