package shared

import (
	"context"
	"time"

	"github.com/campuskit/campuskit/internal/rbac"
)

type actorContextKey struct{}

type tokenContextKey struct{}

// TokenInfo carries the raw bearer token a request presented and its expiry,
// so logout can blacklist it for exactly the remaining validity.
type TokenInfo struct {
	Raw       string
	ExpiresAt time.Time
}

// ContextWithActor stores the authenticated actor in context.
func ContextWithActor(ctx context.Context, actor *rbac.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the authenticated actor from context.
func ActorFromContext(ctx context.Context) *rbac.Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*rbac.Actor)
	return actor
}

// ContextWithToken stores the presented token in context.
func ContextWithToken(ctx context.Context, info TokenInfo) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, info)
}

// TokenFromContext extracts the presented token from context.
func TokenFromContext(ctx context.Context) (TokenInfo, bool) {
	info, ok := ctx.Value(tokenContextKey{}).(TokenInfo)
	return info, ok
}
