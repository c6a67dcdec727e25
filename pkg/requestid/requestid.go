// Package requestid carries the per-request correlation id through a context.
package requestid

import "context"

type contextKey struct{}

const Header = "X-Request-ID"

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the id stored by WithID, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
