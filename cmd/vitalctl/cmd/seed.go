package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/vitalwatch/internal/fixture"
	"github.com/good-yellow-bee/vitalwatch/internal/monitoring"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

var (
	seedDBPath string
	seedDays   int
	seedPerDay int
	seedSeed   int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a database with demo patients and readings",
	Long: `Seed a local SQLite database with demo patients and a deterministic
series of vital readings. Readings run through the full ingestion path, so
out-of-range values raise alerts just as live data would.

Examples:
  # Seed one week of readings
  vitalctl seed --db data/vitalwatch.db --days 7

  # Denser series with a fixed seed
  vitalctl seed --db data/vitalwatch.db --days 3 --per-day 8 --seed 42`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedDBPath, "db", "data/vitalwatch.db", "SQLite database path")
	seedCmd.Flags().IntVar(&seedDays, "days", 7, "days of readings to generate")
	seedCmd.Flags().IntVar(&seedPerDay, "per-day", 4, "readings per day per patient")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 1, "random seed")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(filepath.Dir(seedDBPath), 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store := storage.NewSQLiteStorage(seedDBPath)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	service := monitoring.NewService(store)
	gen := fixture.NewGenerator(seedSeed)
	ctx := context.Background()

	totalReadings := 0
	totalAlerts := 0

	for _, p := range gen.Patients() {
		patient, err := service.CreatePatient(ctx, p.Name, p.Age, p.Conditions)
		if err != nil {
			return fmt.Errorf("create patient %s: %w", p.Name, err)
		}
		PrintVerbose("created patient %s (%s)", patient.Name, patient.ID)

		points := gen.Series(seedDays, seedPerDay, time.Now())
		for _, point := range points {
			result, err := service.RecordVital(ctx, monitoring.RecordVitalInput{
				PatientID:  patient.ID,
				Timestamp:  point.Timestamp,
				RecordedBy: "vitalctl-seed",
				Values:     point.Values,
			})
			if err != nil {
				return fmt.Errorf("record reading for %s: %w", patient.Name, err)
			}
			totalReadings++
			totalAlerts += len(result.Alerts)
		}
		PrintVerbose("  %s", fixture.Describe(points))
	}

	fmt.Printf("seeded %d patients, %d readings, %d alerts into %s\n",
		len(gen.Patients()), totalReadings, totalAlerts, seedDBPath)
	return nil
}
