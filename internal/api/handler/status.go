package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/powerwatch/outage-notifier/internal/api/respond"
	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

// GetStatus reports whether a group has power right now.
// @Summary Current power status
// @Description Evaluates today's published schedule for a group at the current time. The group may be given as "4.1" or "41". A group missing from the schedule is reported as powered with found=false and a note.
// @Tags status
// @Produce json
// @Param group path string true "Outage group, e.g. 4.1"
// @Success 200 {object} notifications.GroupStatus
// @Success 304 "Not modified"
// @Failure 400 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /status/{group} [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	code, ok := schedule.NormalizeGroupCode(chi.URLParam(r, "group"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidGroup, "group must look like 4.1")
		return
	}

	st, err := h.engine.CurrentStatus(r.Context(), code)
	switch {
	case errors.Is(err, notifications.ErrInvalidGroup):
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidGroup, "group must look like 4.1")
		return
	case errors.Is(err, notifications.ErrNoSchedule):
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeNoSchedule, "No outage schedule is available right now")
		return
	case err != nil:
		internalError(w, "compute status", err)
		return
	}

	data, err := json.Marshal(st)
	if err != nil {
		internalError(w, "encode status", err)
		return
	}
	respond.Revalidated(w, r, data, h.statusTTL)
}
