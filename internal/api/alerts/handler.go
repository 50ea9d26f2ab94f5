// Package alerts implements the alert listing and acknowledge endpoints.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
	"github.com/good-yellow-bee/vitalwatch/internal/monitoring"
)

// Response helpers
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeConflict         = "CONFLICT"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, monitoring.ErrValidation):
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
	case errors.Is(err, monitoring.ErrPatientNotFound), errors.Is(err, monitoring.ErrAlertNotFound):
		jsonError(w, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.Is(err, monitoring.ErrAlreadyAcknowledged):
		jsonError(w, http.StatusConflict, errCodeConflict, err.Error())
	default:
		log.Printf("alerts handler error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
	}
}

// Handler handles alert endpoints.
type Handler struct {
	service      *monitoring.Service
	queryTimeout time.Duration
}

// NewHandler creates an alerts handler.
func NewHandler(service *monitoring.Service, queryTimeout time.Duration) *Handler {
	if queryTimeout == 0 {
		queryTimeout = 10 * time.Second
	}
	return &Handler{service: service, queryTimeout: queryTimeout}
}

// ListResponse is the alert listing payload.
type ListResponse struct {
	Alerts  []*models.Alert     `json:"alerts"`
	Summary models.AlertSummary `json:"summary"`
}

// ListByPatient handles GET /patients/{id}/alerts.
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	includeAcknowledged := r.URL.Query().Get("include_acknowledged") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	alerts, summary, err := h.service.Alerts(ctx, patientID, includeAcknowledged)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}

	jsonOK(w, ListResponse{Alerts: alerts, Summary: summary})
}

// AcknowledgeRequest identifies who acknowledged the alert.
type AcknowledgeRequest struct {
	ActorID string `json:"actor_id"`
}

// Acknowledge handles POST /alerts/{id}/acknowledge.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	var req AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	alert, err := h.service.Acknowledge(ctx, alertID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonOK(w, alert)
}
