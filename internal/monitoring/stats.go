package monitoring

import (
	"math"
	"sort"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// Sudden-change detection cutoffs, as relative change between consecutive
// readings of the same vital.
const (
	suddenChangeThreshold = 0.20
	suddenChangeHigh      = 0.30
)

// AggregateOptions filters the reading series before aggregation.
// The day window is applied first, then the count limit.
type AggregateOptions struct {
	// Days restricts readings to the last N days relative to Now.
	// Zero means no day window.
	Days int
	// Limit keeps only the most recent N readings after the day window.
	// Zero means no limit.
	Limit int
	// Now anchors the day window; the zero value means time.Now().
	Now time.Time
}

// FilterReadings applies the day window and count limit and returns the
// readings sorted by timestamp descending. Caller-supplied ordering is not
// trusted; the sort is stable so equal timestamps keep their input order.
// The input slice is not modified.
func FilterReadings(readings []*models.VitalReading, opts AggregateOptions) []*models.VitalReading {
	sorted := make([]*models.VitalReading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if opts.Days > 0 {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		cutoff := now.AddDate(0, 0, -opts.Days)
		kept := sorted[:0]
		for _, r := range sorted {
			if !r.Timestamp.Before(cutoff) {
				kept = append(kept, r)
			}
		}
		sorted = kept
	}

	if opts.Limit > 0 && len(sorted) > opts.Limit {
		sorted = sorted[:opts.Limit]
	}

	return sorted
}

// Aggregate computes per-vital statistics over a reading series. The result
// contains an entry for every vital type: nil when the filtered window holds
// no value of that type, otherwise current/average/min/max and the slope
// (most recent - oldest) / count over the non-null values. Absent data is
// never an error.
func Aggregate(readings []*models.VitalReading, opts AggregateOptions) map[models.VitalType]*models.VitalStats {
	filtered := FilterReadings(readings, opts)

	stats := make(map[models.VitalType]*models.VitalStats, len(models.AllVitalTypes))
	for _, t := range models.AllVitalTypes {
		stats[t] = aggregateVital(filtered, t)
	}
	return stats
}

// aggregateVital computes stats for one vital over readings sorted newest
// first. Returns nil when no reading carries the vital.
func aggregateVital(sorted []*models.VitalReading, t models.VitalType) *models.VitalStats {
	var values []float64 // newest first
	for _, r := range sorted {
		if v, ok := r.Value(t); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	s := &models.VitalStats{
		Current: values[0],
		Min:     values[0],
		Max:     values[0],
		Count:   len(values),
	}

	sum := 0.0
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Average = sum / float64(len(values))

	oldest := values[len(values)-1]
	s.Slope = (s.Current - oldest) / float64(len(values))

	return s
}

// DetectSuddenChanges flags consecutive-reading jumps above the relative
// threshold for every vital, scanning the filtered window in chronological
// order. Mirrors the spike detection the history endpoint reports alongside
// aggregate stats.
func DetectSuddenChanges(readings []*models.VitalReading, opts AggregateOptions) []models.SuddenChange {
	filtered := FilterReadings(readings, opts)

	// Walk oldest to newest.
	var changes []models.SuddenChange
	for _, t := range models.AllVitalTypes {
		var prev float64
		havePrev := false
		for i := len(filtered) - 1; i >= 0; i-- {
			v, ok := filtered[i].Value(t)
			if !ok {
				continue
			}
			if havePrev && prev != 0 {
				change := math.Abs(v-prev) / math.Abs(prev)
				if change > suddenChangeThreshold {
					sev := models.SeverityWarning
					if change > suddenChangeHigh {
						sev = models.SeverityCritical
					}
					changes = append(changes, models.SuddenChange{
						VitalType:     t,
						Timestamp:     filtered[i].Timestamp,
						PreviousValue: prev,
						CurrentValue:  v,
						ChangePercent: change * 100,
						Severity:      sev,
					})
				}
			}
			prev = v
			havePrev = true
		}
	}
	return changes
}
