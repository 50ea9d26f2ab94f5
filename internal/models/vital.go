// Package models contains the core data structures for VitalWatch.
package models

import (
	"time"
)

// VitalType identifies one of the tracked physiological measurements.
type VitalType string

const (
	VitalHeartRate        VitalType = "heart_rate"
	VitalSystolicBP       VitalType = "systolic_bp"
	VitalDiastolicBP      VitalType = "diastolic_bp"
	VitalTemperature      VitalType = "temperature"
	VitalOxygenSaturation VitalType = "oxygen_saturation"
	VitalRespiratoryRate  VitalType = "respiratory_rate"
	VitalBloodGlucose     VitalType = "blood_glucose"
	VitalWeight           VitalType = "weight"

	// VitalCombination marks alerts produced by multivariate combination
	// rules rather than a single out-of-range measurement. It is not part
	// of AllVitalTypes and never appears in threshold sets or statistics.
	VitalCombination VitalType = "combination"
)

// AllVitalTypes lists every measured vital in a fixed order. Classification
// and statistics iterate this slice so output ordering is deterministic.
var AllVitalTypes = []VitalType{
	VitalHeartRate,
	VitalSystolicBP,
	VitalDiastolicBP,
	VitalTemperature,
	VitalOxygenSaturation,
	VitalRespiratoryRate,
	VitalBloodGlucose,
	VitalWeight,
}

// VitalReading is a single timestamped capture of a patient's vitals.
// Any subset of the numeric fields may be present. Readings are append-only:
// they are created once by the ingestion service and never mutated.
type VitalReading struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Timestamp  time.Time `json:"timestamp"`
	RecordedBy string    `json:"recorded_by"`

	HeartRate        *float64 `json:"heart_rate,omitempty"`
	SystolicBP       *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP      *float64 `json:"diastolic_bp,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
	RespiratoryRate  *float64 `json:"respiratory_rate,omitempty"`
	BloodGlucose     *float64 `json:"blood_glucose,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Value returns the measurement for the given vital type, if present.
func (r *VitalReading) Value(t VitalType) (float64, bool) {
	p := r.field(t)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// SetValue sets the measurement for the given vital type.
// Unknown vital types are ignored.
func (r *VitalReading) SetValue(t VitalType, v float64) {
	p := r.field(t)
	if p == nil {
		return
	}
	val := v
	*p = &val
}

// HasValues reports whether at least one vital measurement is present.
func (r *VitalReading) HasValues() bool {
	for _, t := range AllVitalTypes {
		if _, ok := r.Value(t); ok {
			return true
		}
	}
	return false
}

// PresentValues returns the present measurements keyed by vital type.
func (r *VitalReading) PresentValues() map[VitalType]float64 {
	values := make(map[VitalType]float64)
	for _, t := range AllVitalTypes {
		if v, ok := r.Value(t); ok {
			values[t] = v
		}
	}
	return values
}

func (r *VitalReading) field(t VitalType) **float64 {
	switch t {
	case VitalHeartRate:
		return &r.HeartRate
	case VitalSystolicBP:
		return &r.SystolicBP
	case VitalDiastolicBP:
		return &r.DiastolicBP
	case VitalTemperature:
		return &r.Temperature
	case VitalOxygenSaturation:
		return &r.OxygenSaturation
	case VitalRespiratoryRate:
		return &r.RespiratoryRate
	case VitalBloodGlucose:
		return &r.BloodGlucose
	case VitalWeight:
		return &r.Weight
	default:
		return nil
	}
}

// Band is a closed numeric interval.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// VitalThreshold holds the bounds separating normal, warning, and critical
// ranges for one vital. The normal range is inclusive: min <= v <= max is
// normal. Values outside [critical.min, critical.max] are critical.
type VitalThreshold struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Unit     string  `json:"unit"`
	Critical Band    `json:"critical"`
}

// ThresholdSet maps every vital type to its threshold bounds. A ThresholdSet
// is always complete: every entry of AllVitalTypes is present.
type ThresholdSet map[VitalType]VitalThreshold

// TrendDirection is the qualitative classification of current vitals
// relative to a baseline.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendWorsening TrendDirection = "worsening"
	TrendStable    TrendDirection = "stable"
)

// VitalStats summarizes one vital over a series of readings.
type VitalStats struct {
	// Current is the most recent non-null value by timestamp.
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	// Slope is (most recent - oldest) / count over the non-null values.
	Slope float64 `json:"slope"`
	Count int     `json:"count"`
}

// SuddenChange flags a large relative jump between consecutive readings
// of the same vital.
type SuddenChange struct {
	VitalType     VitalType `json:"vital_type"`
	Timestamp     time.Time `json:"timestamp"`
	PreviousValue float64   `json:"previous_value"`
	CurrentValue  float64   `json:"current_value"`
	ChangePercent float64   `json:"change_percent"`
	Severity      Severity  `json:"severity"`
}
