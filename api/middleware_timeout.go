package api

import (
	"context"
	"net/http"
	"time"
)

// QueryTimeout bounds the entry store calls made for one request.
const QueryTimeout = 10 * time.Second

const timeoutBody = `{"response":{"message":"request timeout","error":"the request took too long to process"}}`

// TimeoutMiddleware cancels the request context after timeout and answers
// 503 when the handler has not responded by then. Websocket routes must not
// be wrapped: the timeout writer cannot be hijacked.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}

// QueryContext derives the context for the entry store calls of r.
func QueryContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), QueryTimeout)
}
