package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/vitalwatch/internal/metrics"
	"github.com/good-yellow-bee/vitalwatch/internal/models"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

// AlertManager owns the alert lifecycle: materializing drafts into durable
// alerts and the one-way acknowledge transition.
type AlertManager struct {
	alerts storage.AlertRepository

	// now is injectable for tests.
	now func() time.Time
}

// NewAlertManager creates an alert manager backed by the given repository.
func NewAlertManager(alerts storage.AlertRepository) *AlertManager {
	return &AlertManager{
		alerts: alerts,
		now:    time.Now,
	}
}

// Build materializes classification drafts into alerts for a reading.
// The threshold snapshot in each draft is frozen into the alert and never
// recomputed. Build does not persist: the ingestion path stores the reading
// and its alerts in one transaction.
func (m *AlertManager) Build(reading *models.VitalReading, drafts []Draft) []*models.Alert {
	if len(drafts) == 0 {
		return nil
	}

	created := m.now()
	alerts := make([]*models.Alert, 0, len(drafts))
	for _, d := range drafts {
		alerts = append(alerts, &models.Alert{
			ID:            uuid.New().String(),
			PatientID:     reading.PatientID,
			ReadingID:     reading.ID,
			VitalType:     d.VitalType,
			Severity:      d.Severity,
			Message:       d.Message,
			ObservedValue: d.ObservedValue,
			Threshold:     d.Threshold,
			Timestamp:     reading.Timestamp,
			CreatedAt:     created,
		})
	}
	return alerts
}

// Acknowledge stamps an alert with the acknowledging actor and time. The
// transition goes false -> true exactly once: a second attempt fails with
// ErrAlreadyAcknowledged and leaves the original stamp untouched.
func (m *AlertManager) Acknowledge(ctx context.Context, id, actorID string) (*models.Alert, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: alert id is required", ErrValidation)
	}
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor_id is required", ErrValidation)
	}

	alert, err := m.alerts.Acknowledge(ctx, id, actorID, m.now())
	if err != nil {
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}
	if alert != nil {
		metrics.AlertsAcknowledgedTotal.Inc()
		return alert, nil
	}

	// Zero rows matched: either the alert does not exist or it has been
	// acknowledged before. Look it up to tell the two apart.
	existing, err := m.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load alert: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	return nil, fmt.Errorf("%w: %s", ErrAlreadyAcknowledged, id)
}

// List returns a patient's alerts, newest first, with severity counts.
// When includeAcknowledged is false only open alerts are returned.
func (m *AlertManager) List(ctx context.Context, patientID string, includeAcknowledged bool) ([]*models.Alert, models.AlertSummary, error) {
	alerts, err := m.alerts.ListByPatient(ctx, patientID, includeAcknowledged)
	if err != nil {
		return nil, models.AlertSummary{}, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, models.Summarize(alerts), nil
}
