// Package analyzer implements the confirmation-counted risk analysis that
// turns a single processed sensor record into an optional alert, plus the
// long-term trend analysis over a historical window.
package analyzer

import (
	"fmt"
	"sync"

	"github.com/tundzai001/land-slide-web/model"
)

// Alert is what an analyzer method returns when a station crosses into
// sustained danger for one category.
type Alert struct {
	Level    model.AlertLevel
	Category model.AlertCategory
	Message  string
	Details  map[string]any
}

type debounceKey struct {
	station  string
	category model.AlertCategory
}

type debounceState struct {
	count       int
	lastLevel   model.AlertLevel
	lastEmitted model.AlertLevel
}

// Analyzer holds the per-(station, category) confirmation counters. A
// single Analyzer is shared across every device the orchestrator serves;
// each category is keyed independently so GNSS debounce on one station
// never interacts with rain debounce on another.
type Analyzer struct {
	mu        sync.Mutex
	debounces map[debounceKey]*debounceState
}

// New constructs an analyzer with no prior debounce history.
func New() *Analyzer {
	return &Analyzer{debounces: make(map[debounceKey]*debounceState)}
}

// debounce applies the two-sided confirmation-count hysteresis shared by
// every category (spec §4.3). A candidate level of WARNING/CRITICAL that
// repeats confirmSteps times in a row (with no intervening INFO sample)
// raises an alert exactly once per new streak; an INFO sample clears the
// run so a subsequent danger streak must re-confirm from scratch.
func (a *Analyzer) debounce(stationID string, category model.AlertCategory, candidate model.AlertLevel, confirmSteps int, message string, details map[string]any) *Alert {
	if confirmSteps < 1 {
		confirmSteps = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := debounceKey{station: stationID, category: category}
	state, ok := a.debounces[key]
	if !ok {
		state = &debounceState{}
		a.debounces[key] = state
	}

	if candidate != model.LevelWarning && candidate != model.LevelCritical {
		state.count = 0
		state.lastLevel = ""
		state.lastEmitted = ""
		return nil
	}

	if state.lastLevel == candidate {
		state.count++
	} else {
		state.count = 1
		state.lastLevel = candidate
	}

	if state.count < confirmSteps || state.lastEmitted == candidate {
		return nil
	}
	state.lastEmitted = candidate

	return &Alert{Level: candidate, Category: category, Message: message, Details: details}
}

// AnalyzeGNSS maps the processed velocity record onto a classification and
// raises a debounced alert when the classification implies danger.
func (a *Analyzer) AnalyzeGNSS(stationID string, record map[string]any, cfg model.StationConfig) *Alert {
	speed, _ := record["speed_2d_mm_s"].(float64)
	table := normalizeTable(cfg.ClassificationOrDefault())
	class := classify(table, speed)
	candidate := gnssCandidateLevel(class)

	message := fmt.Sprintf("GNSS velocity classified %s (%.4f mm/s)", class, speed)
	details := map[string]any{"classification": class, "speed_mm_s": speed}
	return a.debounce(stationID, model.CategoryGNSSVelocity, candidate, cfg.Confirm.GNSS, message, details)
}

// AnalyzeRain compares the rain intensity reading against the station's
// warning/critical thresholds.
func (a *Analyzer) AnalyzeRain(stationID string, record map[string]any, cfg model.StationConfig) *Alert {
	intensity, _ := record["intensity_mm_h"].(float64)

	candidate := model.LevelInfo
	switch {
	case intensity >= cfg.Rain.Critical:
		candidate = model.LevelCritical
	case intensity >= cfg.Rain.Warning:
		candidate = model.LevelWarning
	}

	message := fmt.Sprintf("rainfall intensity %.2f mm/h", intensity)
	details := map[string]any{"intensity_mm_h": intensity}
	return a.debounce(stationID, model.CategoryRainfall, candidate, cfg.Confirm.Rain, message, details)
}

// AnalyzeWater compares the water level reading against the station's
// warning/critical thresholds.
func (a *Analyzer) AnalyzeWater(stationID string, record map[string]any, cfg model.StationConfig) *Alert {
	level, _ := record["water_level"].(float64)

	candidate := model.LevelInfo
	switch {
	case level >= cfg.Water.Critical:
		candidate = model.LevelCritical
	case level >= cfg.Water.Warning:
		candidate = model.LevelWarning
	}

	message := fmt.Sprintf("water level %.2f m", level)
	details := map[string]any{"water_level": level}
	return a.debounce(stationID, model.CategoryWaterLevel, candidate, cfg.Confirm.Water, message, details)
}

// AnalyzeIMU flags total acceleration above the station's shock threshold.
func (a *Analyzer) AnalyzeIMU(stationID string, record map[string]any, cfg model.StationConfig) *Alert {
	total, _ := record["total_accel"].(float64)

	candidate := model.LevelInfo
	if total > cfg.ShockThreshold {
		candidate = model.LevelCritical
	}

	message := fmt.Sprintf("shock %.2f m/s^2", total)
	details := map[string]any{"val": total}
	return a.debounce(stationID, model.CategoryShock, candidate, cfg.Confirm.IMU, message, details)
}
