// Package patients implements the patient directory and insights endpoints.
package patients

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

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

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, monitoring.ErrValidation):
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
	case errors.Is(err, monitoring.ErrPatientNotFound):
		jsonError(w, http.StatusNotFound, errCodeNotFound, err.Error())
	default:
		log.Printf("patients handler error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
	}
}

// Handler handles patient endpoints.
type Handler struct {
	service      *monitoring.Service
	queryTimeout time.Duration
}

// NewHandler creates a patients handler.
func NewHandler(service *monitoring.Service, queryTimeout time.Duration) *Handler {
	if queryTimeout == 0 {
		queryTimeout = 10 * time.Second
	}
	return &Handler{service: service, queryTimeout: queryTimeout}
}

// CreateRequest registers a patient.
type CreateRequest struct {
	Name       string   `json:"name"`
	Age        int      `json:"age"`
	Conditions []string `json:"conditions"`
}

// Create handles POST /patients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	patient, err := h.service.CreatePatient(ctx, req.Name, req.Age, req.Conditions)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonCreated(w, patient)
}

// Get handles GET /patients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	patient, err := h.service.GetPatient(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonOK(w, patient)
}

const defaultInsightsDays = 7

// Insights handles GET /patients/{id}/insights.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	days := defaultInsightsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			jsonError(w, http.StatusBadRequest, errCodeBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	insights, err := h.service.Insights(ctx, id, monitoring.AggregateOptions{Days: days})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonOK(w, insights)
}
