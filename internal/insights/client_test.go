package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

func testRequest() *Request {
	return &Request{
		PatientID:  "p1",
		Age:        67,
		Conditions: []string{"hypertension"},
		Stats: map[models.VitalType]*models.VitalStats{
			models.VitalHeartRate: {Current: 88, Average: 82, Min: 70, Max: 95, Count: 12},
		},
		Trend:        models.TrendWorsening,
		AlertSummary: models.AlertSummary{Critical: 1},
	}
}

func TestClientSummarize(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Summary{
			RiskLevel:          "high",
			RiskScore:          78.5,
			ConcerningTrends:   []string{"heart_rate trending up"},
			RecommendedActions: []string{"contact care team"},
			SeekImmediateCare:  false,
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	summary, err := client.Summarize(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/summarize" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.PatientID != "p1" || gotReq.Age != 67 {
		t.Errorf("request = %+v", gotReq)
	}
	if summary.RiskLevel != "high" || summary.RiskScore != 78.5 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.RecommendedActions) != 1 {
		t.Errorf("actions = %v", summary.RecommendedActions)
	}
}

func TestClientSummarize_NoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected auth header %q", h)
		}
		json.NewEncoder(w).Encode(Summary{RiskLevel: "low"})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Summarize(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientSummarize_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Summarize(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error on 502")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q should mention status", err)
	}
}

func TestClientSummarize_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Summary{RiskLevel: "low"})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		BaseURL:   server.URL,
		RateLimit: RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: true},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Summarize(context.Background(), testRequest()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err = client.Summarize(context.Background(), testRequest())
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("second call error = %v, want rate limit error", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{}).Validate(); err == nil {
		t.Error("empty base URL should be invalid")
	}
	if err := (&Config{BaseURL: "http://localhost:9000"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient should reject empty base URL")
	}
}
