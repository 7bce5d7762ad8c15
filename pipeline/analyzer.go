package pipeline

import (
	"github.com/tundzai001/land-slide-web/analyzer"
	"github.com/tundzai001/land-slide-web/model"
)

// RiskAnalyzer is the subset of analyzer.Analyzer the orchestrator drives,
// dispatched by device type.
type RiskAnalyzer interface {
	AnalyzeGNSS(stationID string, record map[string]any, cfg model.StationConfig) *analyzer.Alert
	AnalyzeRain(stationID string, record map[string]any, cfg model.StationConfig) *analyzer.Alert
	AnalyzeWater(stationID string, record map[string]any, cfg model.StationConfig) *analyzer.Alert
	AnalyzeIMU(stationID string, record map[string]any, cfg model.StationConfig) *analyzer.Alert
}
