package leaderboard

import (
	"bytes"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/rank"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, h.svc.Standings(r.Context()))
}

// Rank classifies ?score=N, or lists every tier when score is absent.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("score")
	if raw == "" {
		utilities.WriteJSON(w, http.StatusOK, rank.Tiers)
		return
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid score")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, rank.For(score))
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Reconcile(r.Context())
	if err != nil {
		h.logger.Warnw("reconcile failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "reconcile failed")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]int{"corrected": n})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, h.svc.Standings(r.Context())); err != nil {
		h.logger.Warnw("leaderboard export failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
