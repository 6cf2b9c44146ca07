package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is who is making a request. The zero value is the anonymous
// identity.
type Identity struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
}

// Anonymous is the identity of a request without a valid session.
var Anonymous = Identity{}

// IsAnonymous reports whether the identity carries no user.
func (i Identity) IsAnonymous() bool {
	return i.UserID == uuid.Nil
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok {
		return Anonymous
	}
	return id
}
