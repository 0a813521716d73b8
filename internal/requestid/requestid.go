// Package requestid propagates a per-command request ID through context so
// engine log lines can be tied back to the HTTP request that caused them.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the request ID.
const Header = "X-Request-ID"

type ctxKey struct{}

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request ID stored in ctx, or "" when none is set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Ensure reuses an incoming ID when the client supplied one and otherwise
// mints a fresh UUID.
func Ensure(ctx context.Context, incoming string) (context.Context, string) {
	id := incoming
	if id == "" {
		id = uuid.New().String()
	}
	return WithRequestID(ctx, id), id
}
