package tracing

import "context"

// Context identifies a single inbound request across log lines.
type Context struct {
	RequestID     string
	RequestSource string
}

// FromContext returns the tracing context stored under key, or an empty
// Context when the request did not pass through the tracing middleware.
func FromContext(ctx context.Context, key any) Context {
	tc, _ := ctx.Value(key).(Context)
	return tc
}
