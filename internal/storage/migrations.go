package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Patient directory
			CREATE TABLE IF NOT EXISTS patients (
				id TEXT PRIMARY KEY,
				name TEXT,
				age INTEGER NOT NULL,
				conditions_json TEXT NOT NULL DEFAULT '[]',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Append-only vital readings
			CREATE TABLE IF NOT EXISTS vital_readings (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				timestamp DATETIME NOT NULL,
				recorded_by TEXT NOT NULL,
				heart_rate REAL,
				systolic_bp REAL,
				diastolic_bp REAL,
				temperature REAL,
				oxygen_saturation REAL,
				respiratory_rate REAL,
				blood_glucose REAL,
				weight REAL,
				notes TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (patient_id) REFERENCES patients(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_vital_readings_patient_ts
				ON vital_readings(patient_id, timestamp DESC);

			-- Alerts derived from readings
			CREATE TABLE IF NOT EXISTS alerts (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				reading_id TEXT NOT NULL,
				vital_type TEXT NOT NULL,
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				observed_value REAL NOT NULL,
				threshold_json TEXT NOT NULL,
				timestamp DATETIME NOT NULL,
				acknowledged INTEGER NOT NULL DEFAULT 0,
				acknowledged_by TEXT,
				acknowledged_at DATETIME,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (patient_id) REFERENCES patients(id) ON DELETE CASCADE,
				FOREIGN KEY (reading_id) REFERENCES vital_readings(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_alerts_patient_ts
				ON alerts(patient_id, timestamp DESC);
			CREATE INDEX IF NOT EXISTS idx_alerts_acknowledged
				ON alerts(patient_id, acknowledged);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	// Create migrations tracking table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
