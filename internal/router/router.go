package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/event"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/leaderboard"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/realtime"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user"
)

const Prefix = "/ctf-api"

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        *Authenticator
	Users       *user.Handler
	Event       *event.Handler
	Challenges  *challenge.Handler
	Scoring     *scoring.Handler
	Leaderboard *leaderboard.Handler
	Hub         *realtime.Hub
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers) http.Handler {
	mux := http.NewServeMux()
	a := h.Auth

	mux.HandleFunc("GET "+Prefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET "+Prefix+"/metrics", promhttp.Handler())

	// identity
	mux.HandleFunc("POST "+Prefix+"/auth/register", h.Users.Register)
	mux.HandleFunc("POST "+Prefix+"/auth/login", h.Users.Login)
	mux.HandleFunc("POST "+Prefix+"/auth/logout", a.User(h.Users.Logout))
	mux.HandleFunc("GET "+Prefix+"/me", a.User(h.Users.Me))
	mux.HandleFunc("GET "+Prefix+"/me/submissions", a.User(h.Scoring.Mine))

	// event
	mux.HandleFunc("GET "+Prefix+"/event", h.Event.Get)
	mux.HandleFunc("GET "+Prefix+"/event/countdown", h.Event.Countdown)
	mux.HandleFunc("PUT "+Prefix+"/admin/event", a.Admin(h.Event.Update))

	// challenges and scoring
	mux.HandleFunc("GET "+Prefix+"/challenges", a.Optional(h.Challenges.Visible))
	mux.HandleFunc("GET "+Prefix+"/challenges/stats", h.Challenges.Stats)
	mux.HandleFunc("POST "+Prefix+"/challenges/{id}/submit", a.User(h.Scoring.Submit))
	mux.HandleFunc("GET "+Prefix+"/admin/challenges", a.Admin(h.Challenges.List))
	mux.HandleFunc("POST "+Prefix+"/admin/challenges", a.Admin(h.Challenges.Add))
	mux.HandleFunc("POST "+Prefix+"/admin/challenges/{id}/toggle", a.Admin(h.Challenges.Toggle))
	mux.HandleFunc("DELETE "+Prefix+"/admin/challenges/{id}", a.Admin(h.Challenges.Delete))
	mux.HandleFunc("GET "+Prefix+"/admin/submissions", a.Admin(h.Scoring.List))

	// standings
	mux.HandleFunc("GET "+Prefix+"/rank", h.Leaderboard.Rank)
	mux.HandleFunc("GET "+Prefix+"/leaderboard", h.Leaderboard.Standings)
	mux.HandleFunc("GET "+Prefix+"/admin/users", a.Admin(h.Users.List))
	mux.HandleFunc("POST "+Prefix+"/admin/reconcile", a.Admin(h.Leaderboard.Reconcile))
	mux.HandleFunc("GET "+Prefix+"/admin/leaderboard.xlsx", a.Admin(h.Leaderboard.Export))

	mux.HandleFunc("GET "+Prefix+"/ws/solves", h.Hub.ServeWS)

	// security headers innermost, then metrics, then logging
	handler := LoggingMiddleware(logger)(MetricsMiddleware()(SecurityHeadersMiddleware()(mux)))
	return handler
}
