package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/rank"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/session"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/store"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

// Handler exposes HTTP endpoints for registration, login and the current profile.
type Handler struct {
	svc    *UserService
	store  *store.Store
	tokens *auth.TokenService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, st *store.Store, tokens *auth.TokenService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, store: st, tokens: tokens, logger: logger}
}

type RegisterRequest struct {
	Alias    string `json:"alias" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Alias    string `json:"alias" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the bearer token bound to the new session.
type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int            `json:"expiresIn"`
	User      entity.Profile `json:"user"`
}

type MeResponse struct {
	User entity.Profile `json:"user"`
	Rank rank.Tier      `json:"rank"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := session.New(h.store, utilities.NewUUID())
	u, err := h.svc.Register(r.Context(), sess, req.Alias, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateAlias):
			utilities.WriteError(w, http.StatusConflict, "alias already taken")
		case errors.Is(err, ErrDuplicateEmail):
			utilities.WriteError(w, http.StatusConflict, "email already registered")
		default:
			h.logger.Warnw("register failed", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "register failed")
		}
		return
	}
	h.respondWithToken(w, http.StatusCreated, u, sess)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := session.New(h.store, utilities.NewUUID())
	u, err := h.svc.Login(r.Context(), sess, req.Alias, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			utilities.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Warnw("login failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.respondWithToken(w, http.StatusOK, u, sess)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, status int, u *entity.User, sess *session.Session) {
	tok, err := h.tokens.Issue(u, sess.ID())
	if err != nil {
		h.logger.Warnw("issue token failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	utilities.WriteJSON(w, status, AuthResponse{
		Token:     tok,
		ExpiresIn: int(h.tokens.TTL().Seconds()),
		User:      u.Profile(),
	})
}

// Logout clears the caller's session; the token stops working with it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := auth.SessionFrom(r.Context()); sess != nil {
		h.svc.Logout(r.Context(), sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	if u == nil {
		utilities.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, MeResponse{User: u.Profile(), Rank: rank.For(u.Score)})
}

// List returns every account (admin).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users := h.svc.List(r.Context())
	out := make([]entity.Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}
