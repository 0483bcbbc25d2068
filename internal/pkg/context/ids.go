package context

import "context"

type requestIDKey struct{}
type traceIDKey struct{}
type correlationIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func GetRequestID(ctx context.Context) string {
	v := ctx.Value(requestIDKey{})
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

func GetTraceID(ctx context.Context) string {
	v := ctx.Value(traceIDKey{})
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// WithCorrelationID attaches the placeholder message id once it is known.
// Every later log line of the turn carries it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func GetCorrelationID(ctx context.Context) string {
	v := ctx.Value(correlationIDKey{})
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
