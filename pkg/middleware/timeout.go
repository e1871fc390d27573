package middleware

import (
	"net/http"
	"time"
)

const timeoutBody = `{"error":"request timeout"}`

// Timeout bounds every request to d and answers 503 when it is exceeded.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, timeoutBody)
	}
}

// Chain applies middlewares so that the first one listed is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
