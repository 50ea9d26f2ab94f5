// Package insights integrates an external risk-scoring service. The
// monitoring core computes statistics and trends itself; this client adds
// the advisory layer on top (risk level, recommended actions). The core
// path never depends on it: a nil client or a failed call degrades to
// locally computed data only.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/metrics"
	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// Config holds insights service settings.
type Config struct {
	BaseURL string        // Base URL of the insights service
	APIKey  string        // Optional bearer token
	Timeout time.Duration // Request timeout (default: 10s)

	RateLimit RateLimitConfig
}

// Validate validates the insights configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	return nil
}

// Request carries the locally computed picture the service scores.
type Request struct {
	PatientID     string                                  `json:"patient_id"`
	Age           int                                     `json:"age"`
	Conditions    []string                                `json:"conditions"`
	Stats         map[models.VitalType]*models.VitalStats `json:"stats"`
	Trend         models.TrendDirection                   `json:"trend"`
	SuddenChanges []models.SuddenChange                   `json:"sudden_changes,omitempty"`
	AlertSummary  models.AlertSummary                     `json:"alert_summary"`
}

// Summary is the advisory layer returned by the insights service.
type Summary struct {
	RiskLevel          string   `json:"risk_level"`
	RiskScore          float64  `json:"risk_score"`
	ConcerningTrends   []string `json:"concerning_trends,omitempty"`
	RecommendedActions []string `json:"recommended_actions,omitempty"`
	SeekImmediateCare  bool     `json:"seek_immediate_care"`
}

// Client calls the insights service over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewClient creates an insights client.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid insights config: %w", err)
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit.MaxPerWindow == 0 {
		config.RateLimit = DefaultRateLimitConfig()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: NewRateLimiter(config.RateLimit),
	}, nil
}

// Summarize requests a risk summary for the given patient picture.
func (c *Client) Summarize(ctx context.Context, req *Request) (*Summary, error) {
	if !c.limiter.Allow() {
		metrics.InsightsRequestsTotal.WithLabelValues("rate_limited").Inc()
		return nil, fmt.Errorf("insights rate limit exceeded")
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		c.limiter.Release()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + "/v1/summarize"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		c.limiter.Release()
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.limiter.Release()
		metrics.InsightsRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		metrics.InsightsRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("insights API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		metrics.InsightsRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	metrics.InsightsRequestsTotal.WithLabelValues("success").Inc()
	return &summary, nil
}
