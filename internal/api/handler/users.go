package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/powerwatch/outage-notifier/internal/api/respond"
	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/schedule"
	"github.com/powerwatch/outage-notifier/internal/store"
)

// GroupRequest sets a user's manual group.
type GroupRequest struct {
	Group string `json:"group" example:"4.1"`
	Label string `json:"label,omitempty" example:"Home"`
}

// NotificationsRequest toggles background notifications.
type NotificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

// AddressRequest replaces a user's primary address.
type AddressRequest struct {
	City     string `json:"city"`
	Street   string `json:"street"`
	Building string `json:"building"`
	Group    string `json:"group,omitempty" example:"4.1"`
}

// GetUser returns a user's stored settings.
// @Summary Get user settings
// @Tags users
// @Produce json
// @Param userID path int true "Messaging user ID"
// @Success 200 {object} store.Settings
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{userID} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	h.writeSettings(w, r, userID)
}

// SendSchedule sends today's schedule to the user immediately.
// @Summary Send schedule now
// @Description Delivers today's schedule for the user's group as a new message, bypassing change detection and pacing.
// @Tags users
// @Produce json
// @Param userID path int true "Messaging user ID"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /users/{userID}/schedule [post]
func (h *Handler) SendSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	err := h.engine.SendScheduleNow(r.Context(), userID)
	switch {
	case errors.Is(err, notifications.ErrNoContext):
		respond.Error(w, http.StatusConflict, respond.CodeNoContext, "User has no group or address set")
		return
	case errors.Is(err, notifications.ErrNoSchedule):
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeNoSchedule, "No outage schedule is available right now")
		return
	case err != nil:
		respond.ErrorDetail(w, http.StatusBadGateway, respond.CodeDeliveryFailed, "Could not deliver the schedule", err.Error())
		return
	}
	respond.JSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "sent",
		"user_id": userID,
	})
}

// SetGroup stores the user's manual group.
// @Summary Set manual group
// @Tags users
// @Accept json
// @Produce json
// @Param userID path int true "Messaging user ID"
// @Param body body GroupRequest true "Group"
// @Success 200 {object} store.Settings
// @Failure 400 {object} respond.ErrorResponse
// @Router /users/{userID}/group [put]
func (h *Handler) SetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req GroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	code, ok := schedule.NormalizeGroupCode(req.Group)
	if !ok || !code.Valid() {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidGroup, "group must look like 4.1")
		return
	}

	if err := h.users.SetManualGroup(r.Context(), userID, code, strings.TrimSpace(req.Label)); err != nil {
		internalError(w, "save group", err)
		return
	}
	h.writeSettings(w, r, userID)
}

// SetNotifications enables or disables background notifications.
// @Summary Toggle notifications
// @Tags users
// @Accept json
// @Produce json
// @Param userID path int true "Messaging user ID"
// @Param body body NotificationsRequest true "Toggle"
// @Success 200 {object} store.Settings
// @Failure 400 {object} respond.ErrorResponse
// @Router /users/{userID}/notifications [put]
func (h *Handler) SetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req NotificationsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeMissingField, "enabled is required")
		return
	}

	if err := h.users.SetNotifications(r.Context(), userID, *req.Enabled); err != nil {
		internalError(w, "save notification setting", err)
		return
	}
	h.writeSettings(w, r, userID)
}

// SetAddress replaces the user's primary address.
// @Summary Set primary address
// @Description The address group takes precedence over the manual group when present.
// @Tags users
// @Accept json
// @Produce json
// @Param userID path int true "Messaging user ID"
// @Param body body AddressRequest true "Address"
// @Success 200 {object} store.Settings
// @Failure 400 {object} respond.ErrorResponse
// @Router /users/{userID}/address [put]
func (h *Handler) SetAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req AddressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	addr := store.Address{
		City:     strings.TrimSpace(req.City),
		Street:   strings.TrimSpace(req.Street),
		Building: strings.TrimSpace(req.Building),
	}
	if addr.City == "" || addr.Street == "" || addr.Building == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeMissingField, "city, street, and building are required")
		return
	}
	if req.Group != "" {
		code, ok := schedule.NormalizeGroupCode(req.Group)
		if !ok || !code.Valid() {
			respond.Error(w, http.StatusBadRequest, respond.CodeInvalidGroup, "group must look like 4.1")
			return
		}
		addr.Group = code
	}

	if err := h.users.SetPrimaryAddress(r.Context(), userID, addr); err != nil {
		internalError(w, "save address", err)
		return
	}
	h.writeSettings(w, r, userID)
}

func (h *Handler) writeSettings(w http.ResponseWriter, r *http.Request, userID int64) {
	s, err := h.users.Settings(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "Unknown user")
		return
	}
	if err != nil {
		internalError(w, "load settings", err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}
