package health

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

// SQLiteChecker checks the system of record.
type SQLiteChecker struct {
	db *sql.DB
}

// NewSQLiteChecker creates a new SQLite health checker.
func NewSQLiteChecker(db *sql.DB) *SQLiteChecker {
	return &SQLiteChecker{db: db}
}

// Name returns the checker name.
func (c *SQLiteChecker) Name() string {
	return "sqlite"
}

// Check verifies the SQLite database is accessible.
func (c *SQLiteChecker) Check(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.db.PingContext(ctx)
}

// ArchiveChecker checks the reading archive behind its mirror buffer and
// reports the buffer counters in the readiness payload. A growing pending
// or dropped count flags a mirror falling behind before the archive itself
// goes unreachable.
type ArchiveChecker struct {
	buffer *storage.ArchiveBuffer
}

// NewArchiveChecker creates a new archive health checker.
func NewArchiveChecker(buffer *storage.ArchiveBuffer) *ArchiveChecker {
	return &ArchiveChecker{buffer: buffer}
}

// Name returns the checker name.
func (c *ArchiveChecker) Name() string {
	return "archive"
}

// Check verifies the underlying archive is accessible.
func (c *ArchiveChecker) Check(ctx context.Context) error {
	if c.buffer == nil {
		return fmt.Errorf("archive not configured")
	}
	return c.buffer.Ping(ctx)
}

// Detail reports the mirror buffer counters.
func (c *ArchiveChecker) Detail() map[string]string {
	if c.buffer == nil {
		return nil
	}
	stats := c.buffer.Stats()
	return map[string]string{
		"pending":  strconv.Itoa(stats.Pending),
		"dropped":  strconv.FormatInt(stats.Dropped, 10),
		"flushes":  strconv.FormatInt(stats.Flushed, 10),
		"mirrored": strconv.FormatInt(stats.Inserted, 10),
	}
}
