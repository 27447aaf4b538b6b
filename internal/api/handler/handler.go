// Package handler provides HTTP handlers for all API endpoints. Handlers are
// thin: schedule logic lives in the notification engine, persistence in the
// store.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/powerwatch/outage-notifier/internal/api/respond"
	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/schedule"
	"github.com/powerwatch/outage-notifier/internal/store"
)

// Engine is the part of *notifications.Engine the API exposes.
type Engine interface {
	CurrentStatus(ctx context.Context, code schedule.GroupCode) (notifications.GroupStatus, error)
	SendScheduleNow(ctx context.Context, userID int64) error
}

// UserStore is the settings side of the store.
type UserStore interface {
	Settings(ctx context.Context, userID int64) (*store.Settings, error)
	SetNotifications(ctx context.Context, userID int64, enabled bool) error
	SetManualGroup(ctx context.Context, userID int64, group schedule.GroupCode, label string) error
	SetPrimaryAddress(ctx context.Context, userID int64, a store.Address) error
	Ping(ctx context.Context) error
}

// StateReporter reports the background scheduler's state.
type StateReporter interface {
	State() notifications.State
}

// CacheStats describes the document cache for /health.
type CacheStats interface {
	Stats() map[string]interface{}
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	engine    Engine
	users     UserStore
	scheduler StateReporter
	cache     CacheStats
	statusTTL time.Duration
	now       func() time.Time
}

// New creates a Handler. scheduler may be nil when no loop runs in-process.
func New(engine Engine, users UserStore, scheduler StateReporter) *Handler {
	return &Handler{
		engine:    engine,
		users:     users,
		scheduler: scheduler,
		statusTTL: 30 * time.Second,
		now:       time.Now,
	}
}

// WithCache adds the document cache's counters to /health. c may be nil.
func (h *Handler) WithCache(c CacheStats) *Handler {
	h.cache = c
	return h
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the docs location.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Outage Notifier API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status, scheduler state, document cache counters, and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if h.scheduler != nil {
		body["scheduler"] = h.scheduler.State().String()
	}
	if h.cache != nil {
		body["cache"] = h.cache.Stats()
	}
	respond.JSON(w, http.StatusOK, body)
}

// HealthCheckDB verifies store connectivity.
// @Summary Database health check
// @Description Verifies the subscriber store is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Ping(r.Context()); err != nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

const maxBodyBytes = 1 << 16

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id == 0 {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidUser, "userID must be a non-zero integer")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respond.ErrorDetail(w, http.StatusBadRequest, respond.CodeInvalidBody, "Request body is not valid JSON", err.Error())
		return false
	}
	return true
}

func internalError(w http.ResponseWriter, what string, err error) {
	respond.ErrorDetail(w, http.StatusInternalServerError, respond.CodeInternal, fmt.Sprintf("Failed to %s", what), err.Error())
}
