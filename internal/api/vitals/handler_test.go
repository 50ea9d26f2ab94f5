package vitals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
	"github.com/good-yellow-bee/vitalwatch/internal/monitoring"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

func setupHandler(t *testing.T) (*Handler, *monitoring.Service, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "vitalwatch-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	store := storage.NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open database: %v", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to migrate database: %v", err)
	}

	service := monitoring.NewService(store)
	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}
	return NewHandler(service, 5*time.Second), service, cleanup
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/patients/{id}/vitals", h.Record)
	r.Get("/patients/{id}/vitals", h.History)
	r.Get("/thresholds", h.Thresholds)
	return r
}

func createPatient(t *testing.T, service *monitoring.Service, age int, conditions ...string) *models.Patient {
	t.Helper()
	patient, err := service.CreatePatient(context.Background(), "Test Patient", age, conditions)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return patient
}

func decodeData(t *testing.T, body *bytes.Buffer, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestRecord(t *testing.T) {
	h, service, cleanup := setupHandler(t)
	defer cleanup()
	router := testRouter(h)
	patient := createPatient(t, service, 30)

	body := `{"recorded_by":"nurse-7","values":{"heart_rate":75,"temperature":36.8},"notes":"routine"}`
	req := httptest.NewRequest("POST", "/patients/"+patient.ID+"/vitals", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}

	var result monitoring.RecordResult
	decodeData(t, w.Body, &result)
	if result.Reading == nil || result.Reading.ID == "" {
		t.Fatal("reading missing from response")
	}
	if v, ok := result.Reading.Value(models.VitalHeartRate); !ok || v != 75 {
		t.Errorf("heart rate = %g/%v, want 75", v, ok)
	}
	if len(result.Alerts) != 0 {
		t.Errorf("normal reading returned %d alerts", len(result.Alerts))
	}
}

func TestRecord_ReturnsAlerts(t *testing.T) {
	h, service, cleanup := setupHandler(t)
	defer cleanup()
	router := testRouter(h)
	patient := createPatient(t, service, 30)

	body := `{"values":{"heart_rate":140}}`
	req := httptest.NewRequest("POST", "/patients/"+patient.ID+"/vitals", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}

	var result monitoring.RecordResult
	decodeData(t, w.Body, &result)
	if len(result.Alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(result.Alerts))
	}
	if result.Alerts[0].Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical", result.Alerts[0].Severity)
	}
}

func TestRecord_Errors(t *testing.T) {
	h, service, cleanup := setupHandler(t)
	defer cleanup()
	router := testRouter(h)
	patient := createPatient(t, service, 30)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid json", "/patients/" + patient.ID + "/vitals", "{not json", http.StatusBadRequest, "BAD_REQUEST"},
		{"no values", "/patients/" + patient.ID + "/vitals", `{"values":{}}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown vital", "/patients/" + patient.ID + "/vitals", `{"values":{"pulse":75}}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"negative value", "/patients/" + patient.ID + "/vitals", `{"values":{"heart_rate":-5}}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown patient", "/patients/ghost/vitals", `{"values":{"heart_rate":75}}`, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	h, service, cleanup := setupHandler(t)
	defer cleanup()
	router := testRouter(h)
	patient := createPatient(t, service, 30)

	ctx := context.Background()
	for _, v := range []float64{70, 72, 76} {
		_, err := service.RecordVital(ctx, monitoring.RecordVitalInput{
			PatientID: patient.ID,
			Values:    map[models.VitalType]float64{models.VitalHeartRate: v},
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	req := httptest.NewRequest("GET", "/patients/"+patient.ID+"/vitals?days=7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var history monitoring.History
	decodeData(t, w.Body, &history)
	if len(history.Readings) != 3 {
		t.Fatalf("got %d readings, want 3", len(history.Readings))
	}
	hr := history.Stats[models.VitalHeartRate]
	if hr == nil || hr.Count != 3 {
		t.Errorf("heart rate stats = %+v", hr)
	}
}

func TestHistory_Errors(t *testing.T) {
	h, service, cleanup := setupHandler(t)
	defer cleanup()
	router := testRouter(h)
	patient := createPatient(t, service, 30)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"unknown patient", "/patients/ghost/vitals", http.StatusNotFound},
		{"bad days", "/patients/" + patient.ID + "/vitals?days=abc", http.StatusBadRequest},
		{"negative days", "/patients/" + patient.ID + "/vitals?days=-1", http.StatusBadRequest},
		{"bad limit", "/patients/" + patient.ID + "/vitals?limit=x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestThresholds(t *testing.T) {
	h, _, cleanup := setupHandler(t)
	defer cleanup()
	router := testRouter(h)

	req := httptest.NewRequest("GET", "/thresholds?age=70&conditions=hypertension", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp ThresholdsResponse
	decodeData(t, w.Body, &resp)
	if resp.Age != 70 {
		t.Errorf("age = %d, want 70", resp.Age)
	}
	sys, ok := resp.Thresholds[models.VitalSystolicBP]
	if !ok {
		t.Fatal("missing systolic threshold")
	}
	if sys.Max != 140 {
		t.Errorf("systolic max = %g, want 140 with hypertension", sys.Max)
	}
}

func TestThresholds_DefaultsAndErrors(t *testing.T) {
	h, _, cleanup := setupHandler(t)
	defer cleanup()
	router := testRouter(h)

	req := httptest.NewRequest("GET", "/thresholds", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp ThresholdsResponse
	decodeData(t, w.Body, &resp)
	if resp.Age != monitoring.DefaultAge {
		t.Errorf("age = %d, want default %d", resp.Age, monitoring.DefaultAge)
	}

	req = httptest.NewRequest("GET", "/thresholds?age=500", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for out-of-range age", w.Code)
	}
}
