package middlewares

import "context"

const (
	userIDKey ctxKey = iota + 1
	userHolderKey
)

func WithUserID(ctx context.Context, userID string) context.Context {
	if h, ok := ctx.Value(userHolderKey).(*userHolder); ok {
		h.id = userID
	}
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// userHolder lets AccessLog see the user id set by an inner middleware.
type userHolder struct{ id string }

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, h)
}
