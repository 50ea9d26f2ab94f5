package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	name string
	err  error
}

func (c stubChecker) Name() string                    { return c.name }
func (c stubChecker) Check(ctx context.Context) error { return c.err }

type stubDetailChecker struct {
	stubChecker
	detail map[string]string
}

func (c stubDetailChecker) Detail() map[string]string { return c.detail }

func TestHealthAndLive(t *testing.T) {
	h := NewHandler()

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Version == "" {
		t.Error("health response should carry the version")
	}

	w = httptest.NewRecorder()
	h.Live(w, httptest.NewRequest("GET", "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", w.Code)
	}
}

func TestReady(t *testing.T) {
	h := NewHandler()
	h.RegisterChecker(stubChecker{name: "sqlite"})
	h.RegisterChecker(stubChecker{name: "archive"})

	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest("GET", "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ready" {
		t.Errorf("status = %q", resp.Status)
	}
	for _, name := range []string{"sqlite", "archive"} {
		check, ok := resp.Checks[name]
		if !ok {
			t.Fatalf("missing check %q", name)
		}
		if check.Status != "ok" {
			t.Errorf("%s status = %q, want ok", name, check.Status)
		}
		if check.Latency == "" {
			t.Errorf("%s latency missing", name)
		}
	}
}

func TestReady_FailingDependency(t *testing.T) {
	h := NewHandler()
	h.RegisterChecker(stubChecker{name: "sqlite"})
	h.RegisterChecker(stubChecker{name: "archive", err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest("GET", "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "not_ready" {
		t.Errorf("status = %q", resp.Status)
	}
	check := resp.Checks["archive"]
	if check.Status != "failed" {
		t.Errorf("archive status = %q, want failed", check.Status)
	}
	if check.Error != "connection refused" {
		t.Errorf("archive error = %q", check.Error)
	}
	if resp.Checks["sqlite"].Status != "ok" {
		t.Errorf("sqlite status = %q, want ok", resp.Checks["sqlite"].Status)
	}
}

func TestReady_ChecksCarryDetail(t *testing.T) {
	h := NewHandler()
	h.RegisterChecker(stubDetailChecker{
		stubChecker: stubChecker{name: "archive"},
		detail:      map[string]string{"pending": "2", "dropped": "0"},
	})

	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest("GET", "/health/ready", nil))

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	detail := resp.Checks["archive"].Detail
	if detail["pending"] != "2" || detail["dropped"] != "0" {
		t.Errorf("archive detail = %v", detail)
	}
}
