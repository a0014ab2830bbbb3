package auth

import (
	"context"

	"nursehub-api/internal/model"
)

type ctxKey struct{}

// Identity is what a validated session resolves to.
type Identity struct {
	Admin     *model.Admin
	SessionID string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil && id.Admin != nil
}
