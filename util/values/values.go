package values

// Response statuses. util.StatusCode maps each to an HTTP status code.
const (
	Success        = "success"
	Created        = "created"
	Error          = "error"
	BadRequestBody = "bad_request_body"
	TooLarge       = "too_large"
	NotFound       = "not_found"
)

const (
	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-ID"
)

type contextKey string

const ContextTracingKey contextKey = "tracing"
