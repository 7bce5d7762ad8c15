package analyzer

import (
	"sort"
	"strings"

	"github.com/tundzai001/land-slide-web/model"
)

const (
	secondsPerDay  = 86400.0
	secondsPerYear = 365 * secondsPerDay
)

// normalizedClass is a classification entry with its threshold converted to
// millimeters per second, for a uniform comparison against a candidate
// speed regardless of the unit the station config was authored in.
type normalizedClass struct {
	name         string
	thresholdMMS float64
}

// normalizeTable converts every threshold to mm/s and sorts descending, so
// the first entry a sample meets is its class (spec §4.3).
func normalizeTable(table []model.VelocityClass) []normalizedClass {
	out := make([]normalizedClass, 0, len(table))
	for _, c := range table {
		out = append(out, normalizedClass{name: c.Name, thresholdMMS: toMMS(c.Threshold, c.Unit)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].thresholdMMS > out[j].thresholdMMS
	})
	return out
}

func toMMS(v float64, unit model.VelocityUnit) float64 {
	switch unit {
	case model.UnitMeterSecond:
		return v * 1000
	case model.UnitMillimeterDay:
		return v / secondsPerDay
	case model.UnitMillimeterYear:
		return v / secondsPerYear
	default:
		return v
	}
}

// classify returns the name of the first class whose threshold the speed
// (mm/s, always compared as a magnitude) meets.
func classify(table []normalizedClass, speedMMS float64) string {
	abs := speedMMS
	if abs < 0 {
		abs = -abs
	}
	for _, c := range table {
		if abs >= c.thresholdMMS {
			return c.name
		}
	}
	if len(table) > 0 {
		return table[len(table)-1].name
	}
	return "Unknown"
}

// gnssCandidateLevel maps a classification name onto a debounce candidate
// level per spec §4.3.
func gnssCandidateLevel(className string) model.AlertLevel {
	switch strings.ToUpper(className) {
	case "EXTREMELY RAPID", "VERY RAPID":
		return model.LevelCritical
	case "RAPID", "MODERATE":
		return model.LevelWarning
	default:
		return model.LevelInfo
	}
}

func mmPerSecondToMMPerYear(v float64) float64 {
	return v * secondsPerYear
}

func mmPerSecondToMMPerDay(v float64) float64 {
	return v * secondsPerDay
}
