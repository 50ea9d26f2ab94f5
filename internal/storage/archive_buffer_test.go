package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// fakeArchive records inserted readings and can be made to fail.
type fakeArchive struct {
	mu       sync.Mutex
	inserted []*models.VitalReading
	failNext bool
	closed   bool
}

func (f *fakeArchive) Open() error                    { return nil }
func (f *fakeArchive) Migrate() error                 { return nil }
func (f *fakeArchive) Ping(ctx context.Context) error { return nil }

func (f *fakeArchive) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeArchive) InsertBatch(ctx context.Context, readings []*models.VitalReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("archive unavailable")
	}
	f.inserted = append(f.inserted, readings...)
	return nil
}

func (f *fakeArchive) QueryRange(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.VitalReading, error) {
	return nil, nil
}

func (f *fakeArchive) insertedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func bufferReadings(n int) []*models.VitalReading {
	readings := make([]*models.VitalReading, n)
	for i := range readings {
		readings[i] = &models.VitalReading{ID: "r", PatientID: "p1", Timestamp: time.Now()}
	}
	return readings
}

func TestArchiveBuffer_FlushOnBatchSize(t *testing.T) {
	archive := &fakeArchive{}
	buf := NewArchiveBuffer(archive, &ArchiveBufferConfig{BatchSize: 3, FlushInterval: time.Hour})
	defer buf.Close()

	ctx := context.Background()
	if err := buf.InsertBatch(ctx, bufferReadings(2)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if archive.insertedCount() != 0 {
		t.Error("flushed before reaching batch size")
	}

	if err := buf.InsertBatch(ctx, bufferReadings(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if archive.insertedCount() != 3 {
		t.Errorf("inserted %d readings, want 3", archive.insertedCount())
	}

	stats := buf.Stats()
	if stats.Pending != 0 || stats.Inserted != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestArchiveBuffer_RetainsOnFlushError(t *testing.T) {
	archive := &fakeArchive{failNext: true}
	buf := NewArchiveBuffer(archive, &ArchiveBufferConfig{BatchSize: 2, FlushInterval: time.Hour})
	defer buf.Close()

	ctx := context.Background()
	if err := buf.InsertBatch(ctx, bufferReadings(2)); err == nil {
		t.Fatal("expected flush error")
	}
	if buf.Stats().Pending != 2 {
		t.Errorf("pending = %d, want 2 re-queued readings", buf.Stats().Pending)
	}

	// Next flush succeeds and drains the re-queued readings.
	if err := buf.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if archive.insertedCount() != 2 {
		t.Errorf("inserted %d readings, want 2", archive.insertedCount())
	}
}

func TestArchiveBuffer_DropsOldestOnOverflow(t *testing.T) {
	archive := &fakeArchive{}
	buf := NewArchiveBuffer(archive, &ArchiveBufferConfig{BatchSize: 100, FlushInterval: time.Hour, MaxSize: 5})
	defer buf.Close()

	ctx := context.Background()
	if err := buf.InsertBatch(ctx, bufferReadings(5)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := buf.InsertBatch(ctx, bufferReadings(3)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stats := buf.Stats()
	if stats.Pending != 5 {
		t.Errorf("pending = %d, want capped at 5", stats.Pending)
	}
	if stats.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", stats.Dropped)
	}
}

func TestArchiveBuffer_CloseFlushesAndClosesArchive(t *testing.T) {
	archive := &fakeArchive{}
	buf := NewArchiveBuffer(archive, &ArchiveBufferConfig{BatchSize: 100, FlushInterval: time.Hour})

	if err := buf.InsertBatch(context.Background(), bufferReadings(4)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if archive.insertedCount() != 4 {
		t.Errorf("inserted %d readings on close, want 4", archive.insertedCount())
	}
	if !archive.closed {
		t.Error("underlying archive not closed")
	}

	// Close is idempotent and inserts after close are no-ops.
	if err := buf.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := buf.InsertBatch(context.Background(), bufferReadings(1)); err != nil {
		t.Fatalf("insert after close: %v", err)
	}
	if archive.insertedCount() != 4 {
		t.Error("insert after close reached the archive")
	}
}
