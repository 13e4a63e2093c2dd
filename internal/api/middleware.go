package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/metrics"
)

// pageRoute labels requests served by the page router, which chi sees as
// not found.
const pageRoute = "page"

// AuthMiddleware guards the admin endpoints with a bearer token.
func AuthMiddleware(apiKey string, log *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				jsonError(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				log.Warn("admin request rejected",
					logfields.Path(r.URL.Path),
					"remote", r.RemoteAddr,
					"request_id", middleware.GetReqID(r.Context()))
				jsonError(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return token, ok && token != ""
}

// RequestLogger logs each request with its navigation session and records it
// under the chi route pattern that matched.
func RequestLogger(log *slog.Logger, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			route := pageRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			rec.ObserveRequest(route, sw.status, elapsed)

			level := slog.LevelInfo
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				logfields.Path(r.URL.Path),
				slog.String("route", route),
				slog.Int("status", sw.status),
				slog.Int("bytes", sw.bytes),
				logfields.SessionID(requestSession(r, sw)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				logfields.DurationMS(elapsed.Milliseconds()),
			)
		})
	}
}

// requestSession prefers the cookie the handler just issued over the one the
// browser sent.
func requestSession(r *http.Request, sw *statusWriter) string {
	if sw.session != "" {
		return sw.session
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	session string
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.session = issuedSession(w.Header())
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.session == "" {
		w.session = issuedSession(w.Header())
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func issuedSession(h http.Header) string {
	for _, line := range h.Values("Set-Cookie") {
		if c, err := http.ParseSetCookie(line); err == nil && c.Name == sessionCookie {
			return c.Value
		}
	}
	return ""
}
