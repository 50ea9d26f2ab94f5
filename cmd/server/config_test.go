package main

import "testing"

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("HTTPAddress = %q, want :8080", cfg.Server.HTTPAddress)
	}
	if cfg.Server.MetricsAddress != ":9090" {
		t.Errorf("MetricsAddress = %q, want :9090", cfg.Server.MetricsAddress)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should have a default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidate_RejectsInvalidQueryTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.QueryTimeout = "not-a-duration"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for invalid server.query_timeout")
	}
}

func TestConfigValidate_RequiresTLSFiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.TLS.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when TLS is enabled without cert files")
	}
}

func TestConfigValidate_RequiresInsightsURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Insights.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when insights is enabled without base_url")
	}
}

func TestConfigValidate_RequiresClickHouseAddresses(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.ClickHouse.Enabled = true
	cfg.ClickHouse.Addresses = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when clickhouse is enabled without addresses")
	}
}
