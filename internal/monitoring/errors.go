// Package monitoring implements the vital-sign monitoring core:
// personalized threshold bands, anomaly classification, trend analysis,
// statistics aggregation, and the alert lifecycle.
package monitoring

import "errors"

// Sentinel errors surfaced by the monitoring core. Storage failures are
// wrapped and propagated unchanged; callers distinguish categories with
// errors.Is.
var (
	// ErrValidation indicates a missing or malformed input payload.
	ErrValidation = errors.New("validation failed")

	// ErrPatientNotFound indicates the patient directory has no entry
	// for the requested patient.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrAlertNotFound indicates no alert exists with the requested id.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrAlreadyAcknowledged indicates an acknowledge attempt on an alert
	// that has already been acknowledged. The transition is one-way and
	// the original actor stamp is preserved.
	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")
)
