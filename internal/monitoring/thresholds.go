package monitoring

import (
	"strings"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// DefaultAge is assumed when a patient's age is absent or non-positive.
const DefaultAge = 30

// Age band cutoffs. Exactly one band applies to any age.
const (
	pediatricMaxAge = 17
	seniorMinAge    = 66
)

// adultBaselines are the starting bounds before age and condition
// adjustments. Every entry satisfies critical.min < min < max < critical.max.
var adultBaselines = models.ThresholdSet{
	models.VitalHeartRate: {
		Min: 60, Max: 100, Unit: "bpm",
		Critical: models.Band{Min: 50, Max: 130},
	},
	models.VitalSystolicBP: {
		Min: 90, Max: 120, Unit: "mmHg",
		Critical: models.Band{Min: 70, Max: 180},
	},
	models.VitalDiastolicBP: {
		Min: 60, Max: 80, Unit: "mmHg",
		Critical: models.Band{Min: 40, Max: 120},
	},
	models.VitalTemperature: {
		Min: 36.1, Max: 37.8, Unit: "C",
		Critical: models.Band{Min: 35.0, Max: 39.5},
	},
	models.VitalOxygenSaturation: {
		Min: 95, Max: 100, Unit: "%",
		Critical: models.Band{Min: 85, Max: 105},
	},
	models.VitalRespiratoryRate: {
		Min: 12, Max: 20, Unit: "brpm",
		Critical: models.Band{Min: 8, Max: 30},
	},
	models.VitalBloodGlucose: {
		Min: 70, Max: 140, Unit: "mg/dL",
		Critical: models.Band{Min: 54, Max: 250},
	},
	models.VitalWeight: {
		Min: 40, Max: 200, Unit: "kg",
		Critical: models.Band{Min: 30, Max: 300},
	},
}

// Age-band replacement entries for heart rate, respiratory rate, and blood
// pressure. Vitals not listed keep their adult baseline.
var pediatricOverrides = models.ThresholdSet{
	models.VitalHeartRate: {
		Min: 70, Max: 120, Unit: "bpm",
		Critical: models.Band{Min: 55, Max: 160},
	},
	models.VitalRespiratoryRate: {
		Min: 18, Max: 30, Unit: "brpm",
		Critical: models.Band{Min: 12, Max: 40},
	},
	models.VitalSystolicBP: {
		Min: 85, Max: 110, Unit: "mmHg",
		Critical: models.Band{Min: 65, Max: 150},
	},
	models.VitalDiastolicBP: {
		Min: 50, Max: 75, Unit: "mmHg",
		Critical: models.Band{Min: 40, Max: 100},
	},
}

var seniorOverrides = models.ThresholdSet{
	models.VitalHeartRate: {
		Min: 55, Max: 95, Unit: "bpm",
		Critical: models.Band{Min: 45, Max: 125},
	},
	models.VitalRespiratoryRate: {
		Min: 12, Max: 24, Unit: "brpm",
		Critical: models.Band{Min: 8, Max: 32},
	},
	models.VitalSystolicBP: {
		Min: 95, Max: 130, Unit: "mmHg",
		Critical: models.Band{Min: 75, Max: 180},
	},
	models.VitalDiastolicBP: {
		Min: 60, Max: 85, Unit: "mmHg",
		Critical: models.Band{Min: 40, Max: 120},
	},
}

// Condition override targets. Each override raises (or lowers) a single
// bound to a fixed value, so applying the same condition twice is a no-op.
const (
	hypertensionSystolicMax  = 140
	hypertensionDiastolicMax = 90
	diabetesGlucoseMax       = 180
	copdOxygenMin            = 88
)

// ThresholdsFor computes the complete threshold set for a patient.
// The result always contains every vital type and is a pure function of
// (age, conditions): identical inputs yield structurally identical output.
//
// Adjustments are applied in a fixed order: first the single applicable age
// band (pediatric <18, senior >65), then condition overrides in the order
// hypertension, diabetes, copd/asthma. Unknown condition tags are ignored.
func ThresholdsFor(age int, conditions []string) models.ThresholdSet {
	if age <= 0 {
		age = DefaultAge
	}

	set := make(models.ThresholdSet, len(models.AllVitalTypes))
	for _, t := range models.AllVitalTypes {
		set[t] = adultBaselines[t]
	}

	switch {
	case age <= pediatricMaxAge:
		for t, th := range pediatricOverrides {
			set[t] = th
		}
	case age >= seniorMinAge:
		for t, th := range seniorOverrides {
			set[t] = th
		}
	}

	tags := normalizeConditions(conditions)

	if tags["hypertension"] {
		set[models.VitalSystolicBP] = raiseMax(set[models.VitalSystolicBP], hypertensionSystolicMax)
		set[models.VitalDiastolicBP] = raiseMax(set[models.VitalDiastolicBP], hypertensionDiastolicMax)
	}
	if tags["diabetes"] {
		set[models.VitalBloodGlucose] = raiseMax(set[models.VitalBloodGlucose], diabetesGlucoseMax)
	}
	if tags["copd"] || tags["asthma"] {
		set[models.VitalOxygenSaturation] = lowerMin(set[models.VitalOxygenSaturation], copdOxygenMin)
	}

	return set
}

// normalizeConditions lowercases and trims condition tags.
func normalizeConditions(conditions []string) map[string]bool {
	tags := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		tag := strings.ToLower(strings.TrimSpace(c))
		if tag != "" {
			tags[tag] = true
		}
	}
	return tags
}

// raiseMax widens the normal max to at least target, keeping the critical
// band untouched.
func raiseMax(th models.VitalThreshold, target float64) models.VitalThreshold {
	if th.Max < target {
		th.Max = target
	}
	return th
}

// lowerMin widens the normal min to at most target, keeping the critical
// band untouched.
func lowerMin(th models.VitalThreshold, target float64) models.VitalThreshold {
	if th.Min > target {
		th.Min = target
	}
	return th
}
