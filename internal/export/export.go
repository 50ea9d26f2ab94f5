// Package export writes reading and alert series to JSON or CSV for
// offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// Format defines the output format for exports.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat parses a string to Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "json":
		return JSON, true
	case "csv":
		return CSV, true
	default:
		return "", false
	}
}

// Exporter handles reading and alert export to various formats.
type Exporter struct {
	format Format
	writer io.Writer
}

// NewExporter creates an exporter for the given format.
func NewExporter(format Format, w io.Writer) *Exporter {
	return &Exporter{
		format: format,
		writer: w,
	}
}

// ExportReadings writes vital readings in the configured format.
func (e *Exporter) ExportReadings(readings []*models.VitalReading) error {
	switch e.format {
	case CSV:
		return e.exportReadingsCSV(readings)
	default:
		return e.exportReadingsJSON(readings)
	}
}

func (e *Exporter) exportReadingsJSON(readings []*models.VitalReading) error {
	encoder := json.NewEncoder(e.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(readings)
}

func (e *Exporter) exportReadingsCSV(readings []*models.VitalReading) error {
	w := csv.NewWriter(e.writer)
	defer w.Flush()

	// Header
	header := []string{"id", "patient_id", "timestamp", "recorded_by"}
	for _, t := range models.AllVitalTypes {
		header = append(header, string(t))
	}
	header = append(header, "notes")
	w.Write(header)

	// Rows
	for _, r := range readings {
		row := []string{
			r.ID,
			r.PatientID,
			r.Timestamp.Format(time.RFC3339),
			r.RecordedBy,
		}
		for _, t := range models.AllVitalTypes {
			if v, ok := r.Value(t); ok {
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, r.Notes)
		w.Write(row)
	}

	return w.Error()
}

// ExportAlerts writes alerts in the configured format.
func (e *Exporter) ExportAlerts(alerts []*models.Alert) error {
	switch e.format {
	case CSV:
		return e.exportAlertsCSV(alerts)
	default:
		return e.exportAlertsJSON(alerts)
	}
}

func (e *Exporter) exportAlertsJSON(alerts []*models.Alert) error {
	encoder := json.NewEncoder(e.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(alerts)
}

func (e *Exporter) exportAlertsCSV(alerts []*models.Alert) error {
	w := csv.NewWriter(e.writer)
	defer w.Flush()

	// Header
	w.Write([]string{
		"id", "patient_id", "reading_id", "vital_type", "severity",
		"observed_value", "message", "timestamp", "acknowledged",
		"acknowledged_by", "acknowledged_at",
	})

	// Rows
	for _, a := range alerts {
		ackAt := ""
		if a.AcknowledgedAt != nil {
			ackAt = a.AcknowledgedAt.Format(time.RFC3339)
		}
		w.Write([]string{
			a.ID,
			a.PatientID,
			a.ReadingID,
			string(a.VitalType),
			string(a.Severity),
			strconv.FormatFloat(a.ObservedValue, 'f', -1, 64),
			a.Message,
			a.Timestamp.Format(time.RFC3339),
			strconv.FormatBool(a.Acknowledged),
			a.AcknowledgedBy,
			ackAt,
		})
	}

	return w.Error()
}
