package auth

import "context"

type contextKey struct{}

// WithUser returns a context carrying the verified user ID
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the verified user ID, or "" when the request was not authenticated
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(contextKey{}).(string)
	return userID
}
