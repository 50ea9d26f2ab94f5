package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

type sqliteVitalRepo struct {
	db *sql.DB
}

const insertReadingQuery = `
	INSERT INTO vital_readings (
		id, patient_id, timestamp, recorded_by,
		heart_rate, systolic_bp, diastolic_bp, temperature,
		oxygen_saturation, respiratory_rate, blood_glucose, weight,
		notes, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectReadingColumns = `
	id, patient_id, timestamp, recorded_by,
	heart_rate, systolic_bp, diastolic_bp, temperature,
	oxygen_saturation, respiratory_rate, blood_glucose, weight,
	notes, created_at
`

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertReading(ctx context.Context, e execer, reading *models.VitalReading) error {
	_, err := e.ExecContext(ctx, insertReadingQuery,
		reading.ID, reading.PatientID, reading.Timestamp, reading.RecordedBy,
		nullFloat(reading.HeartRate), nullFloat(reading.SystolicBP),
		nullFloat(reading.DiastolicBP), nullFloat(reading.Temperature),
		nullFloat(reading.OxygenSaturation), nullFloat(reading.RespiratoryRate),
		nullFloat(reading.BloodGlucose), nullFloat(reading.Weight),
		nullString(reading.Notes), reading.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *sqliteVitalRepo) Append(ctx context.Context, reading *models.VitalReading) error {
	return insertReading(ctx, r.db, reading)
}

func (r *sqliteVitalRepo) AppendWithAlerts(ctx context.Context, reading *models.VitalReading, alerts []*models.Alert) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertReading(ctx, tx, reading); err != nil {
		return err
	}
	for _, alert := range alerts {
		if err := insertAlert(ctx, tx, alert); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *sqliteVitalRepo) GetByID(ctx context.Context, id string) (*models.VitalReading, error) {
	query := "SELECT " + selectReadingColumns + " FROM vital_readings WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)

	reading, err := scanReading(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reading: %w", err)
	}
	return reading, nil
}

func (r *sqliteVitalRepo) ListByPatient(ctx context.Context, patientID string) ([]*models.VitalReading, error) {
	query := "SELECT " + selectReadingColumns + `
		FROM vital_readings WHERE patient_id = ?
		ORDER BY timestamp DESC
	`
	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.VitalReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*models.VitalReading, error) {
	reading := &models.VitalReading{}
	var hr, sys, dia, temp, o2, resp, glucose, weight sql.NullFloat64
	var notes sql.NullString

	err := row.Scan(
		&reading.ID, &reading.PatientID, &reading.Timestamp, &reading.RecordedBy,
		&hr, &sys, &dia, &temp, &o2, &resp, &glucose, &weight,
		&notes, &reading.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	reading.HeartRate = floatPtr(hr)
	reading.SystolicBP = floatPtr(sys)
	reading.DiastolicBP = floatPtr(dia)
	reading.Temperature = floatPtr(temp)
	reading.OxygenSaturation = floatPtr(o2)
	reading.RespiratoryRate = floatPtr(resp)
	reading.BloodGlucose = floatPtr(glucose)
	reading.Weight = floatPtr(weight)
	reading.Notes = notes.String

	return reading, nil
}
