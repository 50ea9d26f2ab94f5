package monitoring

import (
	"math"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// trendRelativeThreshold is the minimum relative change against the baseline
// for a vital to count as moving at all; smaller deltas are negligible.
const trendRelativeThreshold = 0.10

// trackedVitals are the reference vitals used for trend classification,
// with the direction in which deterioration moves. Extending the tracked
// set means adding a row here.
var trackedVitals = []struct {
	vital         models.VitalType
	higherIsWorse bool
}{
	{models.VitalHeartRate, true},
	{models.VitalSystolicBP, true},
	{models.VitalOxygenSaturation, false},
}

// AnalyzeTrend classifies current vitals against a baseline (a prior reading
// or rolling average). For each tracked vital present in both maps, a
// relative change above the threshold counts as worsening when it moves in
// the deterioration direction and improving otherwise.
//
// The deterioration direction is fixed per vital, not relative to the
// normal band: a heart rate rising from a below-normal baseline toward
// normal still reads as worsening here, and threshold classification is
// what contextualizes the absolute level.
//
// Aggregation is patient-safety-biased: any worsening vital makes the
// overall result worsening, regardless of simultaneous improving signals;
// otherwise any improving vital yields improving; otherwise stable.
// Pure and deterministic.
func AnalyzeTrend(current, baseline map[models.VitalType]float64) models.TrendDirection {
	anyImproving := false

	for _, tv := range trackedVitals {
		cur, okCur := current[tv.vital]
		base, okBase := baseline[tv.vital]
		if !okCur || !okBase || base == 0 {
			continue
		}

		delta := (cur - base) / base
		if math.Abs(delta) <= trendRelativeThreshold {
			continue
		}

		if (delta > 0) == tv.higherIsWorse {
			return models.TrendWorsening
		}
		anyImproving = true
	}

	if anyImproving {
		return models.TrendImproving
	}
	return models.TrendStable
}
