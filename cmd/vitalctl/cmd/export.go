package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/vitalwatch/internal/export"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
)

var (
	exportDBPath  string
	exportPatient string
	exportAlerts  bool
	exportFormat  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export readings or alerts",
	Long: `Export a patient's vital readings or alerts to JSON or CSV.

Examples:
  # Export readings as CSV
  vitalctl export --db data/vitalwatch.db --patient <id> --format csv

  # Export alerts as JSON
  vitalctl export --db data/vitalwatch.db --patient <id> --alerts`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDBPath, "db", "data/vitalwatch.db", "SQLite database path")
	exportCmd.Flags().StringVar(&exportPatient, "patient", "", "patient id (required)")
	exportCmd.Flags().BoolVar(&exportAlerts, "alerts", false, "export alerts instead of readings")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format (json, csv)")
	exportCmd.MarkFlagRequired("patient")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, ok := export.ParseFormat(exportFormat)
	if !ok {
		return fmt.Errorf("unknown format %q (want json or csv)", exportFormat)
	}

	store := storage.NewSQLiteStorage(exportDBPath)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	exporter := export.NewExporter(format, os.Stdout)

	if exportAlerts {
		alerts, err := store.Alerts().ListByPatient(ctx, exportPatient, true)
		if err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}
		return exporter.ExportAlerts(alerts)
	}

	readings, err := store.Vitals().ListByPatient(ctx, exportPatient)
	if err != nil {
		return fmt.Errorf("list readings: %w", err)
	}
	return exporter.ExportReadings(readings)
}
