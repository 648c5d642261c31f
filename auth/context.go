package auth

import "context"

type ctxKey string

const centerIDKey ctxKey = "auth_center_id"

// ContextWithCenterID stores the authenticated center identity in the context.
func ContextWithCenterID(ctx context.Context, centerID string) context.Context {
	return context.WithValue(ctx, centerIDKey, centerID)
}

// CenterIDFromContext extracts the authenticated center id from the context.
func CenterIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(centerIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
