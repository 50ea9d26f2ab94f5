package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

type sqliteAlertRepo struct {
	db *sql.DB
}

const selectAlertColumns = `
	id, patient_id, reading_id, vital_type, severity, message,
	observed_value, threshold_json, timestamp,
	acknowledged, acknowledged_by, acknowledged_at, created_at
`

func insertAlert(ctx context.Context, e execer, alert *models.Alert) error {
	thresholdJSON, err := json.Marshal(alert.Threshold)
	if err != nil {
		return fmt.Errorf("marshal threshold: %w", err)
	}

	query := `
		INSERT INTO alerts (
			id, patient_id, reading_id, vital_type, severity, message,
			observed_value, threshold_json, timestamp,
			acknowledged, acknowledged_by, acknowledged_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = e.ExecContext(ctx, query,
		alert.ID, alert.PatientID, alert.ReadingID,
		string(alert.VitalType), string(alert.Severity), alert.Message,
		alert.ObservedValue, string(thresholdJSON), alert.Timestamp,
		boolToInt(alert.Acknowledged), nullString(alert.AcknowledgedBy),
		alert.AcknowledgedAt, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) Append(ctx context.Context, alert *models.Alert) error {
	return insertAlert(ctx, r.db, alert)
}

func (r *sqliteAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := "SELECT " + selectAlertColumns + " FROM alerts WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)

	alert, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	return alert, nil
}

func (r *sqliteAlertRepo) ListByPatient(ctx context.Context, patientID string, includeAcknowledged bool) ([]*models.Alert, error) {
	query := "SELECT " + selectAlertColumns + " FROM alerts WHERE patient_id = ?"
	if !includeAcknowledged {
		query += " AND acknowledged = 0"
	}
	query += " ORDER BY timestamp DESC"

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (r *sqliteAlertRepo) Acknowledge(ctx context.Context, id, actorID string, at time.Time) (*models.Alert, error) {
	// The WHERE clause is the guard: an already-acknowledged alert matches
	// zero rows and the caller distinguishes that case via GetByID.
	query := `
		UPDATE alerts
		SET acknowledged = 1, acknowledged_by = ?, acknowledged_at = ?
		WHERE id = ? AND acknowledged = 0
	`
	result, err := r.db.ExecContext(ctx, query, actorID, at, id)
	if err != nil {
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	alert := &models.Alert{}
	var vitalType, severity, thresholdJSON string
	var acknowledged int
	var ackBy sql.NullString
	var ackAt sql.NullTime

	err := row.Scan(
		&alert.ID, &alert.PatientID, &alert.ReadingID,
		&vitalType, &severity, &alert.Message,
		&alert.ObservedValue, &thresholdJSON, &alert.Timestamp,
		&acknowledged, &ackBy, &ackAt, &alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.VitalType = models.VitalType(vitalType)
	alert.Severity = models.ParseSeverity(severity)
	alert.Acknowledged = acknowledged != 0
	alert.AcknowledgedBy = ackBy.String
	if ackAt.Valid {
		t := ackAt.Time
		alert.AcknowledgedAt = &t
	}
	if err := json.Unmarshal([]byte(thresholdJSON), &alert.Threshold); err != nil {
		return nil, fmt.Errorf("unmarshal threshold: %w", err)
	}

	return alert, nil
}
