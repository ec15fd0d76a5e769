package event

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/event/entity"
	"github.com/ovaphlow/pitchfork/service-ctf-core/pkg/utilities"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// EventResponse adds the derived lock flag to the stored configuration.
type EventResponse struct {
	entity.Event
	Locked bool `json:"locked"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ev := h.svc.Get(r.Context())
	utilities.WriteJSON(w, http.StatusOK, EventResponse{Event: ev, Locked: IsLocked(ev)})
}

func (h *Handler) Countdown(w http.ResponseWriter, r *http.Request) {
	utilities.WriteJSON(w, http.StatusOK, h.svc.Countdown(r.Context()))
}

// Update handles PUT with a partial body (admin).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var p entity.Patch
	if err := utilities.DecodeJSON(r, &p); err != nil {
		h.logger.Debugw("invalid event patch", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev, err := h.svc.Update(r.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			utilities.WriteError(w, http.StatusBadRequest, "invalid status")
		case errors.Is(err, ErrInvalidWindow):
			utilities.WriteError(w, http.StatusBadRequest, "end time before start time")
		default:
			h.logger.Warnw("event update failed", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "update failed")
		}
		return
	}
	utilities.WriteJSON(w, http.StatusOK, EventResponse{Event: ev, Locked: IsLocked(ev)})
}
