// Package vitals implements the reading ingestion and history endpoints.
package vitals

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
		log.Printf("vitals handler error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
	}
}

// Handler handles vital reading endpoints.
type Handler struct {
	service      *monitoring.Service
	queryTimeout time.Duration
}

// NewHandler creates a vitals handler.
func NewHandler(service *monitoring.Service, queryTimeout time.Duration) *Handler {
	if queryTimeout == 0 {
		queryTimeout = 10 * time.Second
	}
	return &Handler{service: service, queryTimeout: queryTimeout}
}

// RecordRequest is the ingestion payload.
type RecordRequest struct {
	Timestamp  *time.Time         `json:"timestamp,omitempty"`
	RecordedBy string             `json:"recorded_by,omitempty"`
	Values     map[string]float64 `json:"values"`
	Notes      string             `json:"notes,omitempty"`
}

// Record handles POST /patients/{id}/vitals.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")

	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid JSON body")
		return
	}

	input := monitoring.RecordVitalInput{
		PatientID:  patientID,
		RecordedBy: req.RecordedBy,
		Notes:      req.Notes,
		Values:     make(map[models.VitalType]float64, len(req.Values)),
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}
	for name, v := range req.Values {
		input.Values[models.VitalType(name)] = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	result, err := h.service.RecordVital(ctx, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonCreated(w, result)
}

// History handles GET /patients/{id}/vitals.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")

	opts, err := parseWindow(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	history, err := h.service.History(ctx, patientID, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	jsonOK(w, history)
}

// Thresholds handles GET /thresholds.
func (h *Handler) Thresholds(w http.ResponseWriter, r *http.Request) {
	age, conditions, err := parseThresholdQuery(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	jsonOK(w, ThresholdsResponse{
		Age:        age,
		Conditions: conditions,
		Thresholds: h.service.Thresholds(age, conditions),
	})
}

// ThresholdsResponse echoes the resolved inputs alongside the bounds.
type ThresholdsResponse struct {
	Age        int                 `json:"age"`
	Conditions []string            `json:"conditions"`
	Thresholds models.ThresholdSet `json:"thresholds"`
}
