package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cbodonnell/suika/pkg/log"
)

// NewCORSMiddleware allows the lobby API to be read from any origin.
func NewCORSMiddleware(methods string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", methods)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewLoggingMiddleware logs one line per request at debug level, tagged with
// the request id set by chi's RequestID middleware.
func NewLoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.With("request_id", chimiddleware.GetReqID(r.Context())).Debug(
				"%s %s from %s: %d (%d bytes) in %s",
				r.Method, r.URL.Path, r.RemoteAddr, ww.Status(), ww.BytesWritten(), time.Since(start),
			)
		})
	}
}
