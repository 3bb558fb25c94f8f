package api

import (
	"net/http"
	"runtime/debug"

	"github.com/awaazpay/awaaz/internal/observe"
)

// Recover converts a panic in next into a logged 500 response. It must sit
// inside [observe.Middleware] so the log record carries the trace id.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			observe.Logger(r.Context()).Error("panic serving request",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", v,
				"stack", string(debug.Stack()),
			)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
