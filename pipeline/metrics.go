package pipeline

import "github.com/tundzai001/land-slide-web/model"

// Metrics is the subset of the prometheus collectors the orchestrator
// touches on the hot path.
type Metrics interface {
	FrameDropped(stationType model.DeviceType, reason string)
	AlertRaised(category model.AlertCategory, level model.AlertLevel)
	SensorDataWritten(stationType model.DeviceType)
	OriginReset(stationID string)
}

// noopMetrics discards every observation; used when the orchestrator is
// constructed without a metrics collector (e.g. in tests).
type noopMetrics struct{}

func (noopMetrics) FrameDropped(model.DeviceType, string)             {}
func (noopMetrics) AlertRaised(model.AlertCategory, model.AlertLevel) {}
func (noopMetrics) SensorDataWritten(model.DeviceType)                {}
func (noopMetrics) OriginReset(string)                                {}
