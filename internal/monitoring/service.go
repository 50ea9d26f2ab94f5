package monitoring

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/vitalwatch/internal/insights"
	"github.com/good-yellow-bee/vitalwatch/internal/metrics"
	"github.com/good-yellow-bee/vitalwatch/internal/models"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

// InsightsProvider is the advisory risk-scoring layer. It is optional and
// best-effort: failures degrade to locally computed data.
type InsightsProvider interface {
	Summarize(ctx context.Context, req *insights.Request) (*insights.Summary, error)
}

// Service is the ingestion orchestrator. It ties the monitoring core
// together: resolve the patient, personalize thresholds, classify,
// evaluate combination rules, and persist the reading with its alerts
// atomically.
type Service struct {
	store    storage.Storage
	archive  storage.ReadingArchive // may be nil
	rules    *RuleSet               // may be nil
	alerts   *AlertManager
	insights InsightsProvider // may be nil

	// now is injectable for tests.
	now func() time.Time
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithArchive mirrors accepted readings into a high-volume archive.
func WithArchive(archive storage.ReadingArchive) ServiceOption {
	return func(s *Service) { s.archive = archive }
}

// WithRules enables combination rule evaluation during ingestion.
func WithRules(rules *RuleSet) ServiceOption {
	return func(s *Service) { s.rules = rules }
}

// WithInsights enables the advisory risk summary on the insights endpoint.
func WithInsights(provider InsightsProvider) ServiceOption {
	return func(s *Service) { s.insights = provider }
}

// NewService creates the monitoring service.
func NewService(store storage.Storage, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		alerts: NewAlertManager(store.Alerts()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordVitalInput is a request to ingest one vital reading.
type RecordVitalInput struct {
	PatientID  string
	Timestamp  time.Time // zero means now
	RecordedBy string
	Values     map[models.VitalType]float64
	Notes      string
}

// RecordResult is the outcome of an accepted reading: the stored reading
// and every alert it raised, in classification order.
type RecordResult struct {
	Reading *models.VitalReading `json:"reading"`
	Alerts  []*models.Alert      `json:"alerts"`
}

// RecordVital validates and ingests a reading. Classification runs against
// thresholds personalized to the patient's age and conditions; the reading
// and its alerts are stored in one transaction so callers observe either
// both or neither. A configured archive is mirrored best-effort after
// commit and never fails the request.
func (s *Service) RecordVital(ctx context.Context, input RecordVitalInput) (*RecordResult, error) {
	if err := validateRecordInput(input); err != nil {
		metrics.ReadingsRejectedTotal.Inc()
		return nil, err
	}

	patient, err := s.store.Patients().GetByID(ctx, input.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if patient == nil {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, input.PatientID)
	}

	now := s.now()
	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	reading := &models.VitalReading{
		ID:         uuid.New().String(),
		PatientID:  input.PatientID,
		Timestamp:  timestamp,
		RecordedBy: input.RecordedBy,
		Notes:      input.Notes,
		CreatedAt:  now,
	}
	for t, v := range input.Values {
		reading.SetValue(t, v)
	}

	thresholds := ThresholdsFor(patient.Age, patient.Conditions)
	drafts := Classify(reading, thresholds)
	if s.rules != nil {
		drafts = append(drafts, s.rules.Evaluate(reading, func(rule string, err error) {
			metrics.CombinationRuleErrors.WithLabelValues(rule).Inc()
			log.Printf("combination rule %q failed: %v", rule, err)
		})...)
	}

	alerts := s.alerts.Build(reading, drafts)

	if err := s.store.Vitals().AppendWithAlerts(ctx, reading, alerts); err != nil {
		metrics.StorageErrors.WithLabelValues("append_with_alerts", "sqlite").Inc()
		return nil, fmt.Errorf("store reading: %w", err)
	}

	metrics.ReadingsIngestedTotal.Inc()
	for _, a := range alerts {
		metrics.AlertsCreatedTotal.WithLabelValues(string(a.Severity)).Inc()
	}

	if s.archive != nil {
		if err := s.archive.InsertBatch(ctx, []*models.VitalReading{reading}); err != nil {
			metrics.ArchiveMirrorErrors.Inc()
			log.Printf("archive mirror failed for reading %s: %v", reading.ID, err)
		}
	}

	return &RecordResult{Reading: reading, Alerts: alerts}, nil
}

func validateRecordInput(input RecordVitalInput) error {
	if input.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if len(input.Values) == 0 {
		return fmt.Errorf("%w: at least one vital value is required", ErrValidation)
	}
	for t, v := range input.Values {
		if !knownVitalType(t) {
			return fmt.Errorf("%w: unknown vital type %q", ErrValidation, t)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s value must be finite", ErrValidation, t)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s value must not be negative", ErrValidation, t)
		}
	}
	return nil
}

// History is a patient's reading series with derived analytics.
type History struct {
	Readings      []*models.VitalReading                  `json:"readings"`
	Stats         map[models.VitalType]*models.VitalStats `json:"stats"`
	Trend         models.TrendDirection                   `json:"trend"`
	SuddenChanges []models.SuddenChange                   `json:"sudden_changes,omitempty"`
}

// History returns a patient's readings, newest first, filtered by the day
// window and count limit, together with per-vital statistics, the overall
// trend, and any sudden changes inside the window.
func (s *Service) History(ctx context.Context, patientID string, opts AggregateOptions) (*History, error) {
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrValidation)
	}

	patient, err := s.store.Patients().GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if patient == nil {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}

	readings, err := s.store.Vitals().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}

	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	filtered := FilterReadings(readings, opts)

	return &History{
		Readings:      filtered,
		Stats:         Aggregate(filtered, AggregateOptions{}),
		Trend:         windowTrend(filtered),
		SuddenChanges: DetectSuddenChanges(filtered, AggregateOptions{}),
	}, nil
}

// windowTrend derives the overall trend of a window sorted newest first:
// the latest reading's values against the average of the earlier readings.
// Fewer than two readings is always stable.
func windowTrend(sorted []*models.VitalReading) models.TrendDirection {
	if len(sorted) < 2 {
		return models.TrendStable
	}

	current := sorted[0].PresentValues()

	sums := make(map[models.VitalType]float64)
	counts := make(map[models.VitalType]int)
	for _, r := range sorted[1:] {
		for t, v := range r.PresentValues() {
			sums[t] += v
			counts[t]++
		}
	}
	baseline := make(map[models.VitalType]float64, len(sums))
	for t, sum := range sums {
		baseline[t] = sum / float64(counts[t])
	}

	return AnalyzeTrend(current, baseline)
}

// Thresholds resolves the personalized threshold set for an age and
// condition list. Pure passthrough to the threshold policy.
func (s *Service) Thresholds(age int, conditions []string) models.ThresholdSet {
	return ThresholdsFor(age, conditions)
}

// Alerts returns a patient's alerts with severity counts.
func (s *Service) Alerts(ctx context.Context, patientID string, includeAcknowledged bool) ([]*models.Alert, models.AlertSummary, error) {
	if patientID == "" {
		return nil, models.AlertSummary{}, fmt.Errorf("%w: patient_id is required", ErrValidation)
	}

	patient, err := s.store.Patients().GetByID(ctx, patientID)
	if err != nil {
		return nil, models.AlertSummary{}, fmt.Errorf("load patient: %w", err)
	}
	if patient == nil {
		return nil, models.AlertSummary{}, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}

	return s.alerts.List(ctx, patientID, includeAcknowledged)
}

// Acknowledge marks an alert as acknowledged by the given actor.
func (s *Service) Acknowledge(ctx context.Context, alertID, actorID string) (*models.Alert, error) {
	return s.alerts.Acknowledge(ctx, alertID, actorID)
}

// CreatePatient registers a patient in the directory.
func (s *Service) CreatePatient(ctx context.Context, name string, age int, conditions []string) (*models.Patient, error) {
	if age < 0 || age > 150 {
		return nil, fmt.Errorf("%w: age must be between 0 and 150", ErrValidation)
	}
	if conditions == nil {
		conditions = []string{}
	}

	now := s.now()
	patient := &models.Patient{
		ID:         uuid.New().String(),
		Name:       name,
		Age:        age,
		Conditions: conditions,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Patients().Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return patient, nil
}

// GetPatient returns a patient by id.
func (s *Service) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	patient, err := s.store.Patients().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if patient == nil {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	return patient, nil
}

// PatientInsights is the analytics view of one patient: locally computed
// statistics plus the optional advisory summary.
type PatientInsights struct {
	PatientID     string                                  `json:"patient_id"`
	Stats         map[models.VitalType]*models.VitalStats `json:"stats"`
	Trend         models.TrendDirection                   `json:"trend"`
	SuddenChanges []models.SuddenChange                   `json:"sudden_changes,omitempty"`
	AlertSummary  models.AlertSummary                     `json:"alert_summary"`
	Summary       *insights.Summary                       `json:"summary,omitempty"`
}

// Insights assembles the analytics view for a patient over the given
// window. The advisory summary is best-effort: a missing provider or a
// failed call leaves Summary nil and everything else intact.
func (s *Service) Insights(ctx context.Context, patientID string, opts AggregateOptions) (*PatientInsights, error) {
	patient, err := s.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	history, err := s.History(ctx, patientID, opts)
	if err != nil {
		return nil, err
	}

	_, summary, err := s.alerts.List(ctx, patientID, false)
	if err != nil {
		return nil, err
	}

	result := &PatientInsights{
		PatientID:     patientID,
		Stats:         history.Stats,
		Trend:         history.Trend,
		SuddenChanges: history.SuddenChanges,
		AlertSummary:  summary,
	}

	if s.insights != nil {
		advisory, err := s.insights.Summarize(ctx, &insights.Request{
			PatientID:     patientID,
			Age:           patient.Age,
			Conditions:    patient.Conditions,
			Stats:         history.Stats,
			Trend:         history.Trend,
			SuddenChanges: history.SuddenChanges,
			AlertSummary:  summary,
		})
		if err != nil {
			log.Printf("insights summary unavailable for patient %s: %v", patientID, err)
		} else {
			result.Summary = advisory
		}
	}

	return result, nil
}
