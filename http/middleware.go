package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/dirserve"
)

// BasicAuthMiddleware creates middleware that enforces HTTP Basic
// authentication against spec. A spec that requires no authentication yields
// a pass-through middleware. Failed or missing credentials get a 401 with a
// WWW-Authenticate challenge for realm and never reach the wrapped handler.
func BasicAuthMiddleware(spec dirserve.AuthSpec, realm string) func(http.Handler) http.Handler {
	if !spec.Required() {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	if realm == "" {
		realm = DefaultRealm
	}
	challenge := "Basic realm=" + strconv.Quote(realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || !spec.Verify(username, password) {
				w.Header().Set("WWW-Authenticate", challenge)
				HandleError(w, r, dirserve.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request once the response is written.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
