package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/httplog/v2"
)

// recoverer turns a handler panic into a logged 500 with the API error body.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint
				panic(rec)
			}

			httplog.LogEntrySetField(r.Context(), "panic", slog.AnyValue(rec))
			httplog.LogEntrySetField(r.Context(), "stack", slog.StringValue(string(debug.Stack())))

			renderError(w, r, http.StatusInternalServerError, msgServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
