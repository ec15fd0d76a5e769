package challenge

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/auth"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/challenge/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

// Gate reports whether the board is currently hidden from participants.
type Gate interface {
	Locked(ctx context.Context) bool
}

type Handler struct {
	svc    *Service
	gate   Gate
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, gate Gate, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, gate: gate, logger: logger}
}

// Visible lists enabled challenges for participants, with per-user solved marks.
// Query: category (optional).
func (h *Handler) Visible(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	if h.gate.Locked(r.Context()) && (u == nil || !u.IsAdmin()) {
		utilities.WriteError(w, http.StatusForbidden, "event has not started")
		return
	}
	category := entity.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		utilities.WriteError(w, http.StatusBadRequest, "invalid category")
		return
	}
	list := h.svc.Visible(r.Context(), category)
	out := make([]entity.Public, 0, len(list))
	for _, c := range list {
		p := c.Public()
		p.Solved = u != nil && u.HasSolved(c.ID)
		out = append(out, p)
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

// List returns the full board with flags (admin).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, h.svc.List(r.Context()))
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var in entity.NewChallenge
	if err := utilities.DecodeJSON(r, &in); err != nil {
		h.logger.Debugw("invalid challenge payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Add(r.Context(), in)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Toggle(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, "challenge not found")
	case errors.Is(err, ErrInvalidChallenge):
		utilities.WriteError(w, http.StatusBadRequest, "invalid challenge")
	default:
		h.logger.Warnw("challenge operation failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "operation failed")
	}
}
