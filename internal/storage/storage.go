// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Patients() PatientRepository
	Vitals() VitalRepository
	Alerts() AlertRepository
}

// PatientRepository is the patient directory consumed by the monitoring
// core to resolve age and condition history.
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	// GetByID returns (nil, nil) when no such patient exists.
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	List(ctx context.Context) ([]*models.Patient, error)
}

// VitalRepository defines operations for the append-only vital reading log.
type VitalRepository interface {
	// Append stores a single reading.
	Append(ctx context.Context, reading *models.VitalReading) error

	// AppendWithAlerts stores a reading and all of its derived alerts in
	// one transaction, so callers observe either both or neither.
	AppendWithAlerts(ctx context.Context, reading *models.VitalReading, alerts []*models.Alert) error

	// GetByID returns (nil, nil) when no such reading exists.
	GetByID(ctx context.Context, id string) (*models.VitalReading, error)

	// ListByPatient returns all readings for a patient, newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*models.VitalReading, error)
}

// AlertRepository defines operations for alert persistence and the
// acknowledge transition.
type AlertRepository interface {
	Append(ctx context.Context, alert *models.Alert) error

	// GetByID returns (nil, nil) when no such alert exists.
	GetByID(ctx context.Context, id string) (*models.Alert, error)

	// ListByPatient returns alerts for a patient, newest first. When
	// includeAcknowledged is false only unacknowledged alerts are returned.
	ListByPatient(ctx context.Context, patientID string, includeAcknowledged bool) ([]*models.Alert, error)

	// Acknowledge stamps the acknowledge transition and returns the
	// updated alert, or (nil, nil) when no such alert exists.
	Acknowledge(ctx context.Context, id, actorID string, at time.Time) (*models.Alert, error)
}

// ReadingArchive is the optional high-volume mirror for long-range
// analytics. It is separate from Storage as readings have different access
// patterns there (batch writes, time-range scans). A nil archive is valid:
// the core path never depends on it.
type ReadingArchive interface {
	Open() error
	Close() error
	Migrate() error
	Ping(ctx context.Context) error

	// InsertBatch mirrors readings into the archive.
	InsertBatch(ctx context.Context, readings []*models.VitalReading) error

	// QueryRange returns archived readings for a patient within [from, to),
	// newest first.
	QueryRange(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.VitalReading, error)
}
