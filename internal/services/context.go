package services

import "context"

type ctxKey string

const userIDKey ctxKey = "auth_user_id"

// WithUserID stores the authenticated caller's user ID. The ID comes from
// the identity provider via the auth middleware; the engine only consumes it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
