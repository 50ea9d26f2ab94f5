package health

import (
	"context"
	"testing"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

// stubArchive is a no-op reading archive.
type stubArchive struct{}

func (a *stubArchive) Open() error                    { return nil }
func (a *stubArchive) Close() error                   { return nil }
func (a *stubArchive) Migrate() error                 { return nil }
func (a *stubArchive) Ping(ctx context.Context) error { return nil }

func (a *stubArchive) InsertBatch(ctx context.Context, readings []*models.VitalReading) error {
	return nil
}

func (a *stubArchive) QueryRange(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.VitalReading, error) {
	return nil, nil
}

func TestArchiveChecker(t *testing.T) {
	buffer := storage.NewArchiveBuffer(&stubArchive{}, &storage.ArchiveBufferConfig{
		BatchSize:     100,
		FlushInterval: time.Hour,
	})
	defer buffer.Close()

	checker := NewArchiveChecker(buffer)
	if checker.Name() != "archive" {
		t.Errorf("name = %q", checker.Name())
	}
	if err := checker.Check(context.Background()); err != nil {
		t.Errorf("check: %v", err)
	}

	readings := []*models.VitalReading{
		{ID: "r1", PatientID: "p1", Timestamp: time.Now()},
		{ID: "r2", PatientID: "p1", Timestamp: time.Now()},
	}
	if err := buffer.InsertBatch(context.Background(), readings); err != nil {
		t.Fatalf("insert: %v", err)
	}

	detail := checker.Detail()
	if detail["pending"] != "2" {
		t.Errorf("pending = %q, want 2", detail["pending"])
	}
	if detail["dropped"] != "0" {
		t.Errorf("dropped = %q, want 0", detail["dropped"])
	}
}

func TestArchiveChecker_NotConfigured(t *testing.T) {
	checker := NewArchiveChecker(nil)
	if err := checker.Check(context.Background()); err == nil {
		t.Error("nil buffer should fail the check")
	}
	if checker.Detail() != nil {
		t.Error("nil buffer should have no detail")
	}
}
