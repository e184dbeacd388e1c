package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// ContextWithSessionID stores the recording session ID in the context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session ID from context if present.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext returns l annotated with the identifiers carried by ctx.
func WithContext(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	if id := SessionIDFromContext(ctx); id != "" {
		return l.With().Str(FieldSessionID, id).Logger()
	}
	return l
}
