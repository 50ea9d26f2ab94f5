package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// ClickHouseConfig holds ClickHouse connection settings for the reading
// archive.
type ClickHouseConfig struct {
	// Addresses are the ClickHouse server addresses (host:port).
	Addresses []string

	// Database is the ClickHouse database name.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// DialTimeout is the connection timeout.
	DialTimeout time.Duration

	// Compression enables LZ4 compression.
	Compression bool

	// RetentionDays is the TTL in days for archived readings.
	RetentionDays int
}

// ClickHouseArchive implements ReadingArchive for ClickHouse. It mirrors
// vital readings for long-range analytics; SQLite stays the system of
// record.
type ClickHouseArchive struct {
	config *ClickHouseConfig
	db     *sql.DB
}

// NewClickHouseArchive creates a new ClickHouse reading archive.
func NewClickHouseArchive(config *ClickHouseConfig) *ClickHouseArchive {
	// Apply defaults
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 5
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.RetentionDays == 0 {
		config.RetentionDays = 365
	}

	return &ClickHouseArchive{config: config}
}

// Open initializes the ClickHouse connection.
func (a *ClickHouseArchive) Open() error {
	opts := &clickhouse.Options{
		Addr: a.config.Addresses,
		Auth: clickhouse.Auth{
			Database: a.config.Database,
			Username: a.config.Username,
			Password: a.config.Password,
		},
		DialTimeout:  a.config.DialTimeout,
		MaxOpenConns: a.config.MaxOpenConns,
		MaxIdleConns: a.config.MaxIdleConns,
	}

	if a.config.Compression {
		opts.Compression = &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		}
	}

	db := clickhouse.OpenDB(opts)

	ctx, cancel := context.WithTimeout(context.Background(), a.config.DialTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping clickhouse: %w", err)
	}

	a.db = db
	return nil
}

// Close closes the database connection.
func (a *ClickHouseArchive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Migrate creates the readings table if it doesn't exist.
func (a *ClickHouseArchive) Migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS vital_readings (
			id UUID DEFAULT generateUUIDv4(),
			patient_id String,
			timestamp DateTime64(3, 'UTC'),
			recorded_by String,
			heart_rate Nullable(Float64),
			systolic_bp Nullable(Float64),
			diastolic_bp Nullable(Float64),
			temperature Nullable(Float64),
			oxygen_saturation Nullable(Float64),
			respiratory_rate Nullable(Float64),
			blood_glucose Nullable(Float64),
			weight Nullable(Float64),
			notes String DEFAULT '',
			_date Date DEFAULT toDate(timestamp)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(_date)
		ORDER BY (patient_id, timestamp, id)
		TTL _date + INTERVAL %d DAY DELETE
		SETTINGS index_granularity = 8192
	`, a.config.RetentionDays)

	if _, err := a.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create vital_readings table: %w", err)
	}

	return nil
}

// Ping checks the connection health.
func (a *ClickHouseArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// InsertBatch mirrors readings into the archive using a batch insert.
func (a *ClickHouseArchive) InsertBatch(ctx context.Context, readings []*models.VitalReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vital_readings (
			id, patient_id, timestamp, recorded_by,
			heart_rate, systolic_bp, diastolic_bp, temperature,
			oxygen_saturation, respiratory_rate, blood_glucose, weight,
			notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, reading := range readings {
		id := reading.ID
		if id == "" {
			id = uuid.New().String()
		}

		_, err := stmt.ExecContext(ctx,
			id,
			reading.PatientID,
			reading.Timestamp,
			reading.RecordedBy,
			reading.HeartRate,
			reading.SystolicBP,
			reading.DiastolicBP,
			reading.Temperature,
			reading.OxygenSaturation,
			reading.RespiratoryRate,
			reading.BloodGlucose,
			reading.Weight,
			reading.Notes,
		)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// QueryRange returns archived readings for a patient within [from, to),
// newest first.
func (a *ClickHouseArchive) QueryRange(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.VitalReading, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := fmt.Sprintf(`
		SELECT toString(id), patient_id, timestamp, recorded_by,
		       heart_rate, systolic_bp, diastolic_bp, temperature,
		       oxygen_saturation, respiratory_rate, blood_glucose, weight,
		       notes
		FROM vital_readings
		WHERE patient_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT %d
	`, limit)

	rows, err := a.db.QueryContext(ctx, query, patientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var readings []*models.VitalReading
	for rows.Next() {
		reading := &models.VitalReading{}
		err := rows.Scan(
			&reading.ID,
			&reading.PatientID,
			&reading.Timestamp,
			&reading.RecordedBy,
			&reading.HeartRate,
			&reading.SystolicBP,
			&reading.DiastolicBP,
			&reading.Temperature,
			&reading.OxygenSaturation,
			&reading.RespiratoryRate,
			&reading.BloodGlucose,
			&reading.Weight,
			&reading.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return readings, nil
}
