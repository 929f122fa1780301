package logger

import "context"

type contextKey struct{}

var requestIDKey = contextKey{}

// WithRequestID stores a request ID on the context. The contextHandler
// attaches it to every log record written under that context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID from the context, or "" if none is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
