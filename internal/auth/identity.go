package auth

import (
	"context"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

const RoleAdmin = "admin"

// Identity is the authenticated operator behind a request.
type Identity struct {
	UserID uint
	Role   string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != 0
}

// Require returns the operator identity or a permission error.
func Require(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, httperr.ErrPermission("not_authenticated")
	}
	return id, nil
}
