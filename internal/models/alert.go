package models

import (
	"time"
)

// Severity represents alert severity level.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity converts a string to Severity.
func ParseSeverity(s string) Severity {
	switch s {
	case "info":
		return SeverityInfo
	case "warning":
		return SeverityWarning
	case "critical":
		return SeverityCritical
	default:
		return SeverityWarning
	}
}

// Alert is a durable record that a vital value fell outside its threshold
// bounds at a point in time. The threshold snapshot is frozen at creation
// and never recomputed. The only permitted mutation is the acknowledge
// transition, which goes false -> true exactly once.
type Alert struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	ReadingID     string    `json:"reading_id"`
	VitalType     VitalType `json:"vital_type"`
	Severity      Severity  `json:"severity"`
	Message       string    `json:"message"`
	ObservedValue float64   `json:"observed_value"`

	// Threshold is the bounds in force when the alert was created.
	Threshold VitalThreshold `json:"threshold"`

	Timestamp      time.Time  `json:"timestamp"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AlertSummary groups alert counts by severity.
type AlertSummary struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// Summarize counts alerts by severity.
func Summarize(alerts []*Alert) AlertSummary {
	var s AlertSummary
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityWarning:
			s.Warning++
		case SeverityInfo:
			s.Info++
		}
	}
	return s
}
