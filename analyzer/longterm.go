package analyzer

import (
	"math"
	"sort"
	"strings"

	"github.com/tundzai001/land-slide-web/model"
)

// LongTermStatus discriminates the outcome of a long-term analysis.
type LongTermStatus string

const (
	LongTermOK               LongTermStatus = "ok"
	LongTermInsufficientData LongTermStatus = "insufficient_data"
	LongTermError            LongTermStatus = "error"
)

// Trend is the sign of the linear-regression slope of instantaneous speed
// across the historical window.
type Trend string

const (
	TrendAccelerating Trend = "accelerating"
	TrendDecelerating Trend = "decelerating"
	TrendStable       Trend = "stable"
)

// LongTermResult is the structured outcome of AnalyzeLongTerm. It never
// raises; callers inspect Status instead (spec §7).
type LongTermResult struct {
	Status LongTermStatus
	Message string

	TotalDisplacementMM float64
	VelocityMMS         float64
	VelocityMMDay       float64
	VelocityMMYear      float64
	Classification      string
	Trend               Trend
	Risk                model.AlertLevel
}

// AnalyzeLongTerm computes displacement, velocity, classification, trend,
// and risk over a historical slice of GNSS records ordered by timestamp.
func (a *Analyzer) AnalyzeLongTerm(stationID string, records []model.SensorDataRecord, cfg model.StationConfig, windowDays float64) LongTermResult {
	if len(records) < 2 {
		return LongTermResult{Status: LongTermInsufficientData, Message: "fewer than 2 historical points"}
	}

	ordered := make([]model.SensorDataRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Timestamp.Before(ordered[j].Timestamp) })

	first, last := ordered[0], ordered[len(ordered)-1]
	span := last.Timestamp.Sub(first.Timestamp)
	spanDays := span.Hours() / 24
	if spanDays < 0.1 {
		return LongTermResult{Status: LongTermInsufficientData, Message: "time span below 0.1 day minimum"}
	}

	posE0, _ := first.Record["pos_e"].(float64)
	posN0, _ := first.Record["pos_n"].(float64)
	posU0, _ := first.Record["pos_u"].(float64)
	posE1, _ := last.Record["pos_e"].(float64)
	posN1, _ := last.Record["pos_n"].(float64)
	posU1, _ := last.Record["pos_u"].(float64)

	dE, dN, dU := posE1-posE0, posN1-posN0, posU1-posU0
	totalMM := 1000 * math.Sqrt(dE*dE+dN*dN+dU*dU)

	velocityMMS := totalMM / span.Seconds()
	velocityMMDay := mmPerSecondToMMPerDay(velocityMMS)
	velocityMMYear := mmPerSecondToMMPerYear(velocityMMS)

	table := normalizeTable(cfg.ClassificationOrDefault())
	class := classify(table, velocityMMS)

	trend := computeTrend(ordered)
	risk := riskForClassification(class, trend)

	return LongTermResult{
		Status:              LongTermOK,
		TotalDisplacementMM: totalMM,
		VelocityMMS:         velocityMMS,
		VelocityMMDay:       velocityMMDay,
		VelocityMMYear:      velocityMMYear,
		Classification:      class,
		Trend:               trend,
		Risk:                risk,
	}
}

// computeTrend fits a simple linear regression of speed_2d against sample
// index and classifies its slope. Fewer than 5 usable points yields
// "stable" since the spec only defines the test at 5+ points.
func computeTrend(records []model.SensorDataRecord) Trend {
	type point struct {
		x, y float64
	}
	var pts []point
	for i, r := range records {
		speed, ok := r.Record["speed_2d"].(float64)
		if !ok {
			continue
		}
		pts = append(pts, point{x: float64(i), y: speed})
	}
	if len(pts) < 5 {
		return TrendStable
	}

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(pts))
	for _, p := range pts {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumXX += p.x * p.x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return TrendStable
	}
	slope := (n*sumXY - sumX*sumY) / denom

	switch {
	case slope > 1e-4:
		return TrendAccelerating
	case slope < -1e-4:
		return TrendDecelerating
	default:
		return TrendStable
	}
}

func riskForClassification(class string, trend Trend) model.AlertLevel {
	switch strings.ToUpper(class) {
	case "EXTREMELY RAPID", "VERY RAPID":
		return model.LevelExtreme
	case "RAPID", "MODERATE":
		return model.LevelHigh
	case "SLOW":
		if trend == TrendAccelerating {
			return model.LevelMedium
		}
		return model.LevelLow
	default:
		return model.LevelLow
	}
}
