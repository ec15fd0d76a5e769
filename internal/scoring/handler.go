package scoring

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

type Handler struct {
	svc    *Service
	gate   challenge.Gate
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, gate challenge.Gate, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, gate: gate, logger: logger}
}

type SubmitRequest struct {
	Flag string `json:"flag" validate:"required"`
}

// Submit judges a flag for the authenticated user.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	if u == nil {
		utilities.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.gate.Locked(r.Context()) && !u.IsAdmin() {
		utilities.WriteError(w, http.StatusForbidden, "event has not started")
		return
	}
	var req SubmitRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.SubmitFlag(r.Context(), auth.SessionFrom(r.Context()), u.ID, r.PathValue("id"), req.Flag)
	if err != nil {
		h.logger.Warnw("submit flag failed", "user", u.ID, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "submission failed")
		return
	}
	if res.Outcome == entity.OutcomeUnknownChallenge {
		utilities.WriteJSON(w, http.StatusNotFound, res)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, res)
}

// Mine lists the caller's own attempts.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	if u == nil {
		utilities.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, h.svc.Submissions(r.Context(), entity.Filter{UserID: u.ID}))
}

// List returns the audit log (admin). Query: userId, challengeId.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := entity.Filter{UserID: q.Get("userId"), ChallengeID: q.Get("challengeId")}
	utilities.WriteJSON(w, http.StatusOK, h.svc.Submissions(r.Context(), f))
}
