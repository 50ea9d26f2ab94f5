// Package fixture generates deterministic demo data for seeding and local
// development. It is not used on the production ingestion path.
package fixture

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// Generator produces demo patients and vital readings. The same seed always
// yields the same series.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// demoPatients are the seeded patient profiles.
var demoPatients = []struct {
	Name       string
	Age        int
	Conditions []string
}{
	{"Alice Morgan", 34, nil},
	{"Robert Chen", 72, []string{"hypertension"}},
	{"Elena Vasquez", 58, []string{"diabetes"}},
	{"Sam Okafor", 67, []string{"copd", "hypertension"}},
	{"Lily Tran", 12, nil},
}

// Patients returns the demo patient profiles without IDs or timestamps;
// the caller assigns those on insert.
func (g *Generator) Patients() []*models.Patient {
	patients := make([]*models.Patient, 0, len(demoPatients))
	for _, p := range demoPatients {
		conditions := p.Conditions
		if conditions == nil {
			conditions = []string{}
		}
		patients = append(patients, &models.Patient{
			Name:       p.Name,
			Age:        p.Age,
			Conditions: conditions,
		})
	}
	return patients
}

// vitalProfile is the center and spread of one generated vital.
type vitalProfile struct {
	vital  models.VitalType
	center float64
	spread float64
}

var profiles = []vitalProfile{
	{models.VitalHeartRate, 78, 12},
	{models.VitalSystolicBP, 112, 14},
	{models.VitalDiastolicBP, 72, 9},
	{models.VitalTemperature, 36.8, 0.4},
	{models.VitalOxygenSaturation, 97, 2},
	{models.VitalRespiratoryRate, 15, 3},
	{models.VitalBloodGlucose, 105, 25},
}

// Values generates one set of vital measurements. Roughly one reading in
// ten carries an out-of-range excursion so seeded data raises some alerts.
func (g *Generator) Values() map[models.VitalType]float64 {
	values := make(map[models.VitalType]float64, len(profiles))
	excursion := g.rng.Intn(10) == 0

	for _, p := range profiles {
		v := p.center + g.rng.NormFloat64()*p.spread/2
		if excursion && p.vital == models.VitalHeartRate {
			v = p.center + p.spread*3
		}
		// Clamp oxygen saturation to a physical percentage.
		if p.vital == models.VitalOxygenSaturation && v > 100 {
			v = 100
		}
		values[p.vital] = round1(v)
	}
	return values
}

// Series generates timestamps and values spanning the given number of days,
// readingsPerDay each, ending at end.
func (g *Generator) Series(days, readingsPerDay int, end time.Time) []SeriesPoint {
	total := days * readingsPerDay
	if total == 0 {
		return nil
	}
	interval := time.Duration(days) * 24 * time.Hour / time.Duration(total)

	points := make([]SeriesPoint, 0, total)
	ts := end.Add(-time.Duration(total-1) * interval)
	for i := 0; i < total; i++ {
		points = append(points, SeriesPoint{
			Timestamp: ts,
			Values:    g.Values(),
		})
		ts = ts.Add(interval)
	}
	return points
}

// SeriesPoint is one generated reading in a series.
type SeriesPoint struct {
	Timestamp time.Time
	Values    map[models.VitalType]float64
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// Describe summarizes a generated series for CLI output.
func Describe(points []SeriesPoint) string {
	if len(points) == 0 {
		return "no readings"
	}
	return fmt.Sprintf("%d readings from %s to %s",
		len(points),
		points[0].Timestamp.Format(time.RFC3339),
		points[len(points)-1].Timestamp.Format(time.RFC3339))
}
