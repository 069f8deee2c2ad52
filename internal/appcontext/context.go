package appcontext

import "context"

type ContextKey string

var (
	RequestIDKey  = ContextKey("X-Request-Id")
	RemoteIPKey   = ContextKey("X-Remote-Ip")
	AdminLabelKey = ContextKey("X-Admin-Label")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	value, ok := ctx.Value(RemoteIPKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetAdminLabel records which administrator identity performed the request.
// With single-token auth this is a fixed label, but audit rows keep the
// column so a future multi-user setup doesn't need a schema change.
func SetAdminLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, AdminLabelKey, label)
}

func GetAdminLabel(ctx context.Context) string {
	value, ok := ctx.Value(AdminLabelKey).(string)
	if !ok {
		return ""
	}
	return value
}
