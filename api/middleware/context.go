package middleware

import "context"

type contextKey string

const ctxPrincipalID contextKey = "principal_id"

func PrincipalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPrincipalID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipalID injects the authenticated principal into the context.
// Handlers under test use it to bypass the bearer parsing.
func WithPrincipalID(ctx context.Context, principalID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipalID, principalID)
}
