package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
	"github.com/IlTetta/Climate-Monitoring-App/internal/services"
	"github.com/IlTetta/Climate-Monitoring-App/internal/session"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// HealthChecker reports whether the record store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves the climate monitoring API
type Handler struct {
	operators *services.OperatorService
	centers   *services.CenterService
	cities    *services.CityService
	sessions  *session.Manager
	health    HealthChecker
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewHandler creates a new API handler
func NewHandler(
	operators *services.OperatorService,
	centers *services.CenterService,
	cities *services.CityService,
	sessions *session.Manager,
	health HealthChecker,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *Handler {
	return &Handler{
		operators: operators,
		centers:   centers,
		cities:    cities,
		sessions:  sessions,
		health:    health,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    int    `json:"code"`
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.health.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK] Store unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *Handler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// sendServiceError maps a service error onto its HTTP status
func (h *Handler) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	endpoint := routeTemplate(r)

	var (
		vErr *models.ValidationError
		nf   *repository.NotFoundError
	)

	switch {
	case errors.Is(err, models.ErrDuplicateUsername),
		errors.Is(err, models.ErrDuplicateCenter),
		errors.Is(err, models.ErrAlreadyAssociated),
		errors.Is(err, models.ErrNotAssociated):
		h.metrics.RecordAPIError("conflict", endpoint)
		resp := ErrorResponse{Error: http.StatusText(http.StatusConflict), Message: err.Error(), Code: http.StatusConflict}
		if errors.As(err, &vErr) {
			resp.Field = vErr.Field
		}
		h.sendJSON(w, resp, http.StatusConflict)

	case errors.As(err, &vErr):
		h.metrics.RecordAPIError("validation", endpoint)
		h.sendJSON(w, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: vErr.Message,
			Field:   vErr.Field,
			Code:    http.StatusBadRequest,
		}, http.StatusBadRequest)

	case errors.As(err, &nf):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, nf.Error(), http.StatusNotFound)

	case errors.Is(err, session.ErrNotFound):
		h.metrics.RecordAPIError("unauthorized", endpoint)
		h.sendError(w, r, "login required", http.StatusUnauthorized)

	case errors.Is(err, models.ErrStorageUnavailable):
		h.metrics.RecordAPIError("storage", endpoint)
		h.logger.Error(ctx, "[API_STORAGE_ERROR] Record store unavailable", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.sendError(w, r, "storage unavailable, retry later", http.StatusServiceUnavailable)

	default:
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.logger.Error(ctx, "[API_INTERNAL_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.sendError(w, r, "internal error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return models.NewValidationError("body", "", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// pathID parses a positive integer path variable
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(name, raw, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// sessionToken reads the token from "Authorization: Bearer" or X-Session-Token
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Session-Token"))
}

// currentSession resolves the caller's session and tags ctx with the operator
func (h *Handler) currentSession(r *http.Request) (*session.Session, *http.Request, error) {
	s, err := h.sessions.Get(sessionToken(r))
	if err != nil {
		return nil, r, err
	}
	return s, r.WithContext(logging.WithOperatorID(r.Context(), s.OperatorID)), nil
}
