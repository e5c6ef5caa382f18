package httputil

import (
	"context"
	"net/http"

	"qms/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "requestID"
)

// WithIdentity adds the authenticated caller to the request context
func WithIdentity(r *http.Request, id models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the caller, ok is false for unauthenticated requests
func GetIdentity(r *http.Request) (models.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(models.Identity)
	return id, ok
}

// GetUserID retrieves the caller's user ID, returns empty string if not found
func GetUserID(r *http.Request) string {
	id, _ := GetIdentity(r)
	return id.UserID
}

// WithRequestID stores the request ID on the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID carried by ctx, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
