package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/middleware"
	"nursehub-api/internal/model"
	"nursehub-api/internal/workflow"
)

const maxBody = 64 << 10

// Appointments is the workflow surface the HTTP layer drives.
type Appointments interface {
	Submit(ctx context.Context, in workflow.BookingInput) (*model.Appointment, error)
	Transition(ctx context.Context, id string, target model.Status, cancellationReason string) (*model.Appointment, error)
	Get(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, filter *model.Status) ([]model.Appointment, error)
	Remove(ctx context.Context, id string) error
	Stats(ctx context.Context) (model.Stats, error)
}

type Handler struct {
	appts        Appointments
	gate         auth.Gate
	health       func(context.Context) error
	secureCookie bool
	log          *zap.Logger
}

type Options struct {
	// Health backs /healthz; nil always reports ok.
	Health func(context.Context) error
	// SecureCookie marks the session cookie Secure (HTTPS only).
	SecureCookie bool
}

func New(appts Appointments, gate auth.Gate, opts Options, log *zap.Logger) *Handler {
	return &Handler{
		appts:        appts,
		gate:         gate,
		health:       opts.Health,
		secureCookie: opts.SecureCookie,
		log:          log.Named("handler"),
	}
}

// Routes mounts the public booking surface, the admin dashboard surface and
// the operational endpoints.
func (h *Handler) Routes(limiter *middleware.RateLimiter) http.Handler {
	admin := middleware.RequireAdmin(h.gate, h.log)
	limit := middleware.Limit(limiter)

	mux := http.NewServeMux()
	mux.Handle("POST /appointments", limit(http.HandlerFunc(h.createAppointment)))
	mux.Handle("GET /appointments", admin(http.HandlerFunc(h.listAppointments)))
	mux.Handle("GET /appointments/stats", admin(http.HandlerFunc(h.stats)))
	mux.Handle("GET /appointments/{id}", admin(http.HandlerFunc(h.getAppointment)))
	mux.Handle("PATCH /appointments/{id}", admin(http.HandlerFunc(h.updateStatus)))
	mux.Handle("DELETE /appointments/{id}", admin(http.HandlerFunc(h.deleteAppointment)))

	mux.Handle("POST /auth/login", limit(http.HandlerFunc(h.login)))
	mux.Handle("POST /auth/logout", admin(http.HandlerFunc(h.logout)))

	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.AccessLog(h.log)(mux)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error   string                `json:"error"`
	Details []workflow.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// fail maps workflow errors onto status codes. Unexpected errors are logged
// and reported generically.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Validation failed", Details: verr.Fields})
	case errors.Is(err, workflow.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, workflow.ErrNotFound):
		writeError(w, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, workflow.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a bounded JSON body; unknown fields are ignored.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
