package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

func TestAlertManagerBuild(t *testing.T) {
	repo := &mockAlertRepo{}
	mgr := NewAlertManager(repo)
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return created }

	reading := &models.VitalReading{
		ID:        "reading-1",
		PatientID: "patient-1",
		Timestamp: created.Add(-time.Minute),
	}
	threshold := models.VitalThreshold{Min: 60, Max: 100, Unit: "bpm",
		Critical: models.Band{Min: 50, Max: 130}}
	drafts := []Draft{
		{VitalType: models.VitalHeartRate, Severity: models.SeverityCritical,
			ObservedValue: 140, Message: "too fast", Threshold: threshold},
		{VitalType: models.VitalCombination, Severity: models.SeverityWarning,
			Message: "combo", RuleName: "combo-rule"},
	}

	alerts := mgr.Build(reading, drafts)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}

	a := alerts[0]
	if a.ID == "" {
		t.Error("alert id not assigned")
	}
	if a.PatientID != "patient-1" || a.ReadingID != "reading-1" {
		t.Errorf("alert linkage = %s/%s", a.PatientID, a.ReadingID)
	}
	if a.Threshold != threshold {
		t.Errorf("threshold not frozen: %+v", a.Threshold)
	}
	if !a.Timestamp.Equal(reading.Timestamp) {
		t.Errorf("alert timestamp = %v, want reading timestamp", a.Timestamp)
	}
	if !a.CreatedAt.Equal(created) {
		t.Errorf("created at = %v, want %v", a.CreatedAt, created)
	}
	if a.Acknowledged {
		t.Error("new alert must start unacknowledged")
	}
	if alerts[0].ID == alerts[1].ID {
		t.Error("alerts share an id")
	}

	// Build never persists.
	if len(repo.alerts) != 0 {
		t.Errorf("Build persisted %d alerts", len(repo.alerts))
	}
}

func TestAlertManagerBuild_NoDrafts(t *testing.T) {
	mgr := NewAlertManager(&mockAlertRepo{})
	if alerts := mgr.Build(&models.VitalReading{ID: "r"}, nil); alerts != nil {
		t.Errorf("expected nil, got %+v", alerts)
	}
}

func TestAlertManagerAcknowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := &mockAlertRepo{alerts: []*models.Alert{{ID: "a1", PatientID: "p1"}}}
		mgr := NewAlertManager(repo)
		at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
		mgr.now = func() time.Time { return at }

		alert, err := mgr.Acknowledge(ctx, "a1", "nurse-7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !alert.Acknowledged || alert.AcknowledgedBy != "nurse-7" {
			t.Errorf("alert not stamped: %+v", alert)
		}
		if alert.AcknowledgedAt == nil || !alert.AcknowledgedAt.Equal(at) {
			t.Errorf("acknowledged at = %v, want %v", alert.AcknowledgedAt, at)
		}
	})

	t.Run("second acknowledge fails and keeps original stamp", func(t *testing.T) {
		repo := &mockAlertRepo{alerts: []*models.Alert{{ID: "a1", PatientID: "p1"}}}
		mgr := NewAlertManager(repo)

		first, err := mgr.Acknowledge(ctx, "a1", "nurse-7")
		if err != nil {
			t.Fatalf("first acknowledge: %v", err)
		}
		firstAt := *first.AcknowledgedAt

		_, err = mgr.Acknowledge(ctx, "a1", "nurse-8")
		if !errors.Is(err, ErrAlreadyAcknowledged) {
			t.Fatalf("error = %v, want ErrAlreadyAcknowledged", err)
		}

		got, _ := repo.GetByID(ctx, "a1")
		if got.AcknowledgedBy != "nurse-7" || !got.AcknowledgedAt.Equal(firstAt) {
			t.Errorf("original stamp changed: %+v", got)
		}
	})

	t.Run("unknown alert", func(t *testing.T) {
		mgr := NewAlertManager(&mockAlertRepo{})
		_, err := mgr.Acknowledge(ctx, "missing", "nurse-7")
		if !errors.Is(err, ErrAlertNotFound) {
			t.Fatalf("error = %v, want ErrAlertNotFound", err)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		mgr := NewAlertManager(&mockAlertRepo{})
		if _, err := mgr.Acknowledge(ctx, "", "nurse-7"); !errors.Is(err, ErrValidation) {
			t.Errorf("empty alert id: error = %v, want ErrValidation", err)
		}
		if _, err := mgr.Acknowledge(ctx, "a1", ""); !errors.Is(err, ErrValidation) {
			t.Errorf("empty actor id: error = %v, want ErrValidation", err)
		}
	})
}

func TestAlertManagerList(t *testing.T) {
	base := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	repo := &mockAlertRepo{alerts: []*models.Alert{
		{ID: "a1", PatientID: "p1", Severity: models.SeverityCritical, Timestamp: base},
		{ID: "a2", PatientID: "p1", Severity: models.SeverityWarning, Timestamp: base.Add(time.Hour), Acknowledged: true},
		{ID: "a3", PatientID: "p2", Severity: models.SeverityWarning, Timestamp: base},
	}}
	mgr := NewAlertManager(repo)
	ctx := context.Background()

	open, summary, err := mgr.List(ctx, "p1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(open) != 1 || open[0].ID != "a1" {
		t.Errorf("open alerts = %+v, want only a1", open)
	}
	if summary.Critical != 1 || summary.Warning != 0 {
		t.Errorf("summary = %+v", summary)
	}

	all, summary, err := mgr.List(ctx, "p1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all alerts = %d, want 2", len(all))
	}
	if !all[0].Timestamp.After(all[1].Timestamp) {
		t.Error("alerts not newest first")
	}
	if summary.Critical != 1 || summary.Warning != 1 {
		t.Errorf("summary = %+v", summary)
	}
}
