package router

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/session"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// Hijack lets the websocket upgrade through the wrapper.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if lrw.status == 0 {
		lrw.status = http.StatusSwitchingProtocols
	}
	return hj.Hijack()
}

func (lrw *loggingResponseWriter) statusCode() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", lrw.statusCode(),
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// MetricsMiddleware records request count and latency labelled by the matched route pattern.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(lrw.statusCode())
			metrics.RequestCounter.WithLabelValues(status, r.Method, path).Inc()
			metrics.RequestDuration.WithLabelValues(status, r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticator resolves bearer tokens to sessions. The session slot is authoritative:
// a token whose slot is empty or holds another user is rejected. The request user is
// read fresh from the user collection, never from the slot's copy.
type Authenticator struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *zap.SugaredLogger
}

func NewAuthenticator(st *store.Store, tokens *auth.TokenService, logger *zap.SugaredLogger) *Authenticator {
	return &Authenticator{store: st, tokens: tokens, logger: logger}
}

// Optional attaches the session when a valid token is present and passes anonymous requests through.
func (a *Authenticator) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next(w, r)
			return
		}
		r, ok := a.resolve(w, r)
		if !ok {
			return
		}
		next(w, r)
	}
}

// User requires an authenticated session.
func (a *Authenticator) User(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, ok := a.resolve(w, r)
		if !ok {
			return
		}
		next(w, r)
	}
}

// Admin requires an authenticated administrator.
func (a *Authenticator) Admin(next http.HandlerFunc) http.HandlerFunc {
	return a.User(func(w http.ResponseWriter, r *http.Request) {
		if u := auth.UserFrom(r.Context()); u == nil || !u.IsAdmin() {
			utilities.WriteError(w, http.StatusForbidden, "admin only")
			return
		}
		next(w, r)
	})
}

func (a *Authenticator) resolve(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		utilities.WriteError(w, http.StatusUnauthorized, "missing token")
		return r, false
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		a.logger.Debugw("rejected token", "err", err)
		utilities.WriteError(w, http.StatusUnauthorized, "invalid token")
		return r, false
	}
	sess := session.New(a.store, claims.SID)
	if cur := sess.Current(r.Context()); cur == nil || cur.ID != claims.Subject {
		utilities.WriteError(w, http.StatusUnauthorized, "session expired")
		return r, false
	}
	// the slot only proves the login; profile and solves come from the user collection
	u := a.store.User(r.Context(), claims.Subject)
	if u == nil {
		utilities.WriteError(w, http.StatusUnauthorized, "session expired")
		return r, false
	}
	return r.WithContext(auth.WithSession(r.Context(), sess, u)), true
}
