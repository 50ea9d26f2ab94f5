package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

type sqlitePatientRepo struct {
	db *sql.DB
}

func (r *sqlitePatientRepo) Create(ctx context.Context, patient *models.Patient) error {
	conditionsJSON, err := json.Marshal(patient.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	query := `
		INSERT INTO patients (id, name, age, conditions_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		patient.ID, nullString(patient.Name), patient.Age, string(conditionsJSON),
		patient.CreatedAt, patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *sqlitePatientRepo) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	query := `
		SELECT id, name, age, conditions_json, created_at, updated_at
		FROM patients WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	patient := &models.Patient{}
	var name sql.NullString
	var conditionsJSON string

	err := row.Scan(&patient.ID, &name, &patient.Age, &conditionsJSON,
		&patient.CreatedAt, &patient.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}

	patient.Name = name.String
	if err := json.Unmarshal([]byte(conditionsJSON), &patient.Conditions); err != nil {
		return nil, fmt.Errorf("unmarshal conditions: %w", err)
	}

	return patient, nil
}

func (r *sqlitePatientRepo) Update(ctx context.Context, patient *models.Patient) error {
	conditionsJSON, err := json.Marshal(patient.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	query := `
		UPDATE patients SET name = ?, age = ?, conditions_json = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		nullString(patient.Name), patient.Age, string(conditionsJSON),
		patient.UpdatedAt, patient.ID,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("patient not found: %s", patient.ID)
	}
	return nil
}

func (r *sqlitePatientRepo) List(ctx context.Context) ([]*models.Patient, error) {
	query := `
		SELECT id, name, age, conditions_json, created_at, updated_at
		FROM patients ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		patient := &models.Patient{}
		var name sql.NullString
		var conditionsJSON string

		if err := rows.Scan(&patient.ID, &name, &patient.Age, &conditionsJSON,
			&patient.CreatedAt, &patient.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patient.Name = name.String
		if err := json.Unmarshal([]byte(conditionsJSON), &patient.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshal conditions: %w", err)
		}
		patients = append(patients, patient)
	}
	return patients, rows.Err()
}
