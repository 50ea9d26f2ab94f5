package models

import (
	"encoding/json"
	"testing"
)

func TestVitalReadingValues(t *testing.T) {
	r := &VitalReading{ID: "r1"}

	if r.HasValues() {
		t.Error("empty reading should have no values")
	}
	if _, ok := r.Value(VitalHeartRate); ok {
		t.Error("absent vital should report not present")
	}

	r.SetValue(VitalHeartRate, 72)
	r.SetValue(VitalTemperature, 36.8)

	if !r.HasValues() {
		t.Error("reading should have values after SetValue")
	}
	if v, ok := r.Value(VitalHeartRate); !ok || v != 72 {
		t.Errorf("heart rate = %g/%v, want 72", v, ok)
	}

	present := r.PresentValues()
	if len(present) != 2 {
		t.Errorf("present values = %v, want 2 entries", present)
	}
	if present[VitalTemperature] != 36.8 {
		t.Errorf("temperature = %g", present[VitalTemperature])
	}

	// Unknown types are ignored, not stored.
	r.SetValue("pulse", 99)
	if len(r.PresentValues()) != 2 {
		t.Error("unknown vital type should be ignored")
	}
	if _, ok := r.Value("pulse"); ok {
		t.Error("unknown vital type should not be readable")
	}
}

func TestVitalReadingJSON_OmitsAbsentVitals(t *testing.T) {
	r := &VitalReading{ID: "r1", PatientID: "p1"}
	r.SetValue(VitalHeartRate, 72)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["heart_rate"]; !ok {
		t.Error("present vital missing from JSON")
	}
	if _, ok := m["oxygen_saturation"]; ok {
		t.Error("absent vital serialized")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"info", SeverityInfo},
		{"warning", SeverityWarning},
		{"critical", SeverityCritical},
		{"bogus", SeverityWarning},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	alerts := []*Alert{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
	}
	s := Summarize(alerts)
	if s.Critical != 2 || s.Warning != 1 || s.Info != 1 {
		t.Errorf("summary = %+v", s)
	}

	if empty := Summarize(nil); empty != (AlertSummary{}) {
		t.Errorf("empty summary = %+v", empty)
	}
}
