package auth

import (
	"context"

	"github.com/tendant/qsd/pkg/qsd"
)

type actorKey struct{}

// WithActor returns a copy of ctx carrying the authenticated user.
func WithActor(ctx context.Context, user *qsd.User) context.Context {
	return context.WithValue(ctx, actorKey{}, user)
}

// ActorFromContext returns the authenticated user, if any.
func ActorFromContext(ctx context.Context) (*qsd.User, bool) {
	user, ok := ctx.Value(actorKey{}).(*qsd.User)
	return user, ok && user != nil
}
