package monitoring

import (
	"fmt"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// Draft is an alert candidate produced by classification. Drafts carry the
// threshold snapshot that was in force so the resulting alert freezes it.
type Draft struct {
	VitalType     models.VitalType
	Severity      models.Severity
	ObservedValue float64
	Message       string
	Threshold     models.VitalThreshold
	// RuleName is set for drafts produced by combination rules.
	RuleName string
}

// Classify compares each present measurement of a reading against its
// threshold bounds and returns zero or more alert drafts, ordered by vital
// type. The normal range is inclusive (min <= v <= max emits nothing);
// values outside the critical band are critical, values outside the normal
// band are warnings. Each vital is evaluated independently: one abnormal
// measurement never suppresses detection of another.
//
// Classify is a pure function of (reading values, thresholds): no I/O, no
// hidden state.
func Classify(reading *models.VitalReading, thresholds models.ThresholdSet) []Draft {
	var drafts []Draft

	for _, t := range models.AllVitalTypes {
		v, ok := reading.Value(t)
		if !ok {
			continue
		}
		th, ok := thresholds[t]
		if !ok {
			continue
		}

		switch {
		case v < th.Critical.Min || v > th.Critical.Max:
			drafts = append(drafts, Draft{
				VitalType:     t,
				Severity:      models.SeverityCritical,
				ObservedValue: v,
				Message:       boundsMessage(t, v, th, models.SeverityCritical),
				Threshold:     th,
			})
		case v < th.Min || v > th.Max:
			drafts = append(drafts, Draft{
				VitalType:     t,
				Severity:      models.SeverityWarning,
				ObservedValue: v,
				Message:       boundsMessage(t, v, th, models.SeverityWarning),
				Threshold:     th,
			})
		}
	}

	return drafts
}

func boundsMessage(t models.VitalType, v float64, th models.VitalThreshold, sev models.Severity) string {
	direction := "above"
	bound := th.Max
	if sev == models.SeverityCritical {
		bound = th.Critical.Max
		if v < th.Critical.Min {
			direction = "below"
			bound = th.Critical.Min
		}
	} else if v < th.Min {
		direction = "below"
		bound = th.Min
	}

	return fmt.Sprintf("%s %s %s %s threshold %s %s (normal %s-%s %s)",
		t, trimFloat(v), direction, sev, trimFloat(bound), th.Unit,
		trimFloat(th.Min), trimFloat(th.Max), th.Unit)
}

// trimFloat formats a value without trailing zeros (98 rather than 98.000000).
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	if s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}
