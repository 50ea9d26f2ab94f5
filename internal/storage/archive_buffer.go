package storage

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// ArchiveBuffer batches readings before mirroring them to the archive.
// It flushes on either batch size threshold or time interval, whichever
// comes first, and implements backpressure by dropping oldest readings
// when the buffer reaches max capacity. SQLite remains the system of
// record, so a dropped mirror is a gap in analytics, never data loss.
//
// ArchiveBuffer implements ReadingArchive by wrapping another archive:
// writes are buffered, everything else passes through.
type ArchiveBuffer struct {
	archive       ReadingArchive
	batchSize     int
	flushInterval time.Duration
	maxSize       int

	mu       sync.Mutex
	buffer   []*models.VitalReading
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopped  atomic.Bool
	dropped  atomic.Int64
	flushed  atomic.Int64
	inserted atomic.Int64
}

// ArchiveBufferConfig holds ArchiveBuffer configuration.
type ArchiveBufferConfig struct {
	// BatchSize is the number of readings to trigger a flush.
	BatchSize int

	// FlushInterval is the time interval to trigger a flush.
	FlushInterval time.Duration

	// MaxSize is the maximum buffer size. When reached, oldest readings are dropped.
	MaxSize int
}

// NewArchiveBuffer creates a buffering wrapper around an archive.
func NewArchiveBuffer(archive ReadingArchive, config *ArchiveBufferConfig) *ArchiveBuffer {
	// Apply defaults
	if config.BatchSize == 0 {
		config.BatchSize = 500
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.MaxSize == 0 {
		config.MaxSize = 50000
	}

	b := &ArchiveBuffer{
		archive:       archive,
		batchSize:     config.BatchSize,
		flushInterval: config.FlushInterval,
		maxSize:       config.MaxSize,
		buffer:        make([]*models.VitalReading, 0, config.BatchSize),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}

	go b.flushLoop()
	return b
}

// Open opens the underlying archive.
func (b *ArchiveBuffer) Open() error {
	return b.archive.Open()
}

// Migrate migrates the underlying archive.
func (b *ArchiveBuffer) Migrate() error {
	return b.archive.Migrate()
}

// Ping checks the underlying archive.
func (b *ArchiveBuffer) Ping(ctx context.Context) error {
	return b.archive.Ping(ctx)
}

// QueryRange queries the underlying archive. Buffered readings not yet
// flushed are not visible.
func (b *ArchiveBuffer) QueryRange(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.VitalReading, error) {
	return b.archive.QueryRange(ctx, patientID, from, to, limit)
}

// InsertBatch adds readings to the buffer. The write to the underlying
// archive happens asynchronously.
func (b *ArchiveBuffer) InsertBatch(ctx context.Context, readings []*models.VitalReading) error {
	if b.stopped.Load() {
		return nil
	}

	b.mu.Lock()

	// Check if we need to drop old readings (backpressure)
	newLen := len(b.buffer) + len(readings)
	if newLen > b.maxSize {
		toDrop := newLen - b.maxSize
		if toDrop >= len(b.buffer) {
			b.dropped.Add(int64(len(b.buffer)))
			b.buffer = b.buffer[:0]
			keep := b.maxSize
			if keep > len(readings) {
				keep = len(readings)
			}
			drop := len(readings) - keep
			b.dropped.Add(int64(drop))
			readings = readings[drop:]
			log.Printf("warning: archive buffer overflow, dropped %d readings", toDrop)
		} else {
			b.dropped.Add(int64(toDrop))
			b.buffer = b.buffer[toDrop:]
			log.Printf("warning: archive buffer overflow, dropped %d oldest readings", toDrop)
		}
	}

	b.buffer = append(b.buffer, readings...)
	shouldFlush := len(b.buffer) >= b.batchSize
	b.mu.Unlock()

	if shouldFlush {
		return b.Flush()
	}
	return nil
}

// Flush forces a flush of the current buffer.
func (b *ArchiveBuffer) Flush() error {
	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		return nil
	}

	toFlush := b.buffer
	b.buffer = make([]*models.VitalReading, 0, b.batchSize)
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.archive.InsertBatch(ctx, toFlush); err != nil {
		// Put readings back on error (at front so they're flushed next)
		b.mu.Lock()
		b.buffer = append(toFlush, b.buffer...)
		// Apply max size limit again
		if len(b.buffer) > b.maxSize {
			excess := len(b.buffer) - b.maxSize
			b.dropped.Add(int64(excess))
			b.buffer = b.buffer[excess:]
		}
		b.mu.Unlock()
		return err
	}

	b.flushed.Add(1)
	b.inserted.Add(int64(len(toFlush)))
	return nil
}

// flushLoop periodically flushes the buffer.
func (b *ArchiveBuffer) flushLoop() {
	defer close(b.doneCh)
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				log.Printf("archive buffer flush error: %v", err)
			}
		case <-b.stopCh:
			// Final flush on shutdown
			if err := b.Flush(); err != nil {
				log.Printf("archive buffer final flush error: %v", err)
			}
			return
		}
	}
}

// Close stops the buffer, flushes remaining readings, and closes the
// underlying archive.
func (b *ArchiveBuffer) Close() error {
	if b.stopped.Swap(true) {
		return nil // Already stopped
	}
	close(b.stopCh)
	<-b.doneCh
	return b.archive.Close()
}

// Stats returns buffer statistics.
func (b *ArchiveBuffer) Stats() ArchiveBufferStats {
	b.mu.Lock()
	pending := len(b.buffer)
	b.mu.Unlock()

	return ArchiveBufferStats{
		Pending:  pending,
		Dropped:  b.dropped.Load(),
		Flushed:  b.flushed.Load(),
		Inserted: b.inserted.Load(),
	}
}

// ArchiveBufferStats contains buffer statistics.
type ArchiveBufferStats struct {
	// Pending is the number of readings waiting to be flushed.
	Pending int

	// Dropped is the total number of readings dropped due to backpressure.
	Dropped int64

	// Flushed is the total number of flush operations.
	Flushed int64

	// Inserted is the total number of readings successfully mirrored.
	Inserted int64
}
