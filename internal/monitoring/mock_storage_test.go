package monitoring

import (
	"context"
	"sort"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

// mockStorage is an in-memory storage.Storage for service tests.
type mockStorage struct {
	patients *mockPatientRepo
	vitals   *mockVitalRepo
	alerts   *mockAlertRepo
}

func newMockStorage() *mockStorage {
	s := &mockStorage{
		patients: &mockPatientRepo{byID: make(map[string]*models.Patient)},
		vitals:   &mockVitalRepo{},
		alerts:   &mockAlertRepo{},
	}
	s.vitals.onAppend = func(alerts []*models.Alert) {
		s.alerts.alerts = append(s.alerts.alerts, alerts...)
	}
	return s
}

func (s *mockStorage) Open() error    { return nil }
func (s *mockStorage) Close() error   { return nil }
func (s *mockStorage) Migrate() error { return nil }

func (s *mockStorage) Patients() storage.PatientRepository { return s.patients }
func (s *mockStorage) Vitals() storage.VitalRepository     { return s.vitals }
func (s *mockStorage) Alerts() storage.AlertRepository     { return s.alerts }

type mockPatientRepo struct {
	byID map[string]*models.Patient
	err  error
}

func (r *mockPatientRepo) Create(ctx context.Context, patient *models.Patient) error {
	if r.err != nil {
		return r.err
	}
	r.byID[patient.ID] = patient
	return nil
}

func (r *mockPatientRepo) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byID[id], nil
}

func (r *mockPatientRepo) Update(ctx context.Context, patient *models.Patient) error {
	if r.err != nil {
		return r.err
	}
	r.byID[patient.ID] = patient
	return nil
}

func (r *mockPatientRepo) List(ctx context.Context) ([]*models.Patient, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*models.Patient, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

type mockVitalRepo struct {
	readings  []*models.VitalReading
	appendErr error
	onAppend  func(alerts []*models.Alert)
}

func (r *mockVitalRepo) Append(ctx context.Context, reading *models.VitalReading) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.readings = append(r.readings, reading)
	return nil
}

func (r *mockVitalRepo) AppendWithAlerts(ctx context.Context, reading *models.VitalReading, alerts []*models.Alert) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.readings = append(r.readings, reading)
	// The real implementation writes both in one transaction; the hook
	// lands the alerts in the sibling repo the same way.
	if r.onAppend != nil {
		r.onAppend(alerts)
	}
	return nil
}

func (r *mockVitalRepo) GetByID(ctx context.Context, id string) (*models.VitalReading, error) {
	for _, reading := range r.readings {
		if reading.ID == id {
			return reading, nil
		}
	}
	return nil, nil
}

func (r *mockVitalRepo) ListByPatient(ctx context.Context, patientID string) ([]*models.VitalReading, error) {
	var out []*models.VitalReading
	for _, reading := range r.readings {
		if reading.PatientID == patientID {
			out = append(out, reading)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

type mockAlertRepo struct {
	alerts  []*models.Alert
	ackErr  error
	listErr error
}

func (r *mockAlertRepo) Append(ctx context.Context, alert *models.Alert) error {
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *mockAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	for _, a := range r.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *mockAlertRepo) ListByPatient(ctx context.Context, patientID string, includeAcknowledged bool) ([]*models.Alert, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.Alert
	for _, a := range r.alerts {
		if a.PatientID != patientID {
			continue
		}
		if !includeAcknowledged && a.Acknowledged {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (r *mockAlertRepo) Acknowledge(ctx context.Context, id, actorID string, at time.Time) (*models.Alert, error) {
	if r.ackErr != nil {
		return nil, r.ackErr
	}
	for _, a := range r.alerts {
		if a.ID == id && !a.Acknowledged {
			a.Acknowledged = true
			a.AcknowledgedBy = actorID
			a.AcknowledgedAt = &at
			return a, nil
		}
	}
	return nil, nil
}
