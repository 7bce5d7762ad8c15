// Package pipeline implements the orchestrator that drives a raw broker
// frame through decryption, processing, live broadcast, risk analysis, and
// throttled persistence (spec §4.4).
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tundzai001/land-slide-web/analyzer"
	"github.com/tundzai001/land-slide-web/broadcast"
	"github.com/tundzai001/land-slide-web/model"
	"github.com/tundzai001/land-slide-web/processor"
	"github.com/tundzai001/land-slide-web/registry"
)

// Orchestrator wires together the topic registry, cipher, analyzer,
// broadcast hub, and persistence gateway into the per-frame pipeline.
type Orchestrator struct {
	log zerolog.Logger

	lookup      Lookup
	decoder     Decoder
	broadcaster Broadcaster
	analyzer    RiskAnalyzer
	store       Store
	metrics     Metrics

	saveIntervals *saveIntervalTracker
}

// Option configures an optional Orchestrator dependency.
type Option func(*Orchestrator)

// WithMetrics overrides the default no-op metrics collector.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New constructs an orchestrator from its required collaborators.
func New(log zerolog.Logger, lookup Lookup, decoder Decoder, broadcaster Broadcaster, analyzer RiskAnalyzer, store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:           log.With().Str("component", "pipeline").Logger(),
		lookup:        lookup,
		decoder:       decoder,
		broadcaster:   broadcaster,
		analyzer:      analyzer,
		store:         store,
		metrics:       noopMetrics{},
		saveIntervals: newSaveIntervalTracker(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleFrame runs one raw broker frame through the full pipeline (spec
// §4.4). It never returns an error to the caller: every failure is logged
// with device/station identity and swallowed, since a single frame must
// never stall the broker's delivery loop.
func (o *Orchestrator) HandleFrame(ctx context.Context, topic string, raw []byte, now time.Time) {
	binding, ok := o.lookup.Lookup(topic)
	if !ok {
		return
	}

	log := o.log.With().Str("device", binding.DeviceID).Str("station", binding.StationID).Logger()

	frame, ok := o.decoder.Decode(raw)
	if !ok {
		o.metrics.FrameDropped(binding.Type, "decode_failed")
		log.Debug().Msg("dropped frame that failed decryption or text decode")
		return
	}

	result := binding.Process(ctx, frame, now)
	switch result.Kind {
	case processor.ResultDropped:
		o.metrics.FrameDropped(binding.Type, "processor_dropped")
		return
	case processor.ResultProgress:
		o.handleProgress(log, binding, result)
		return
	}

	record := result.Record
	o.broadcaster.Publish(broadcast.Event{
		Type:       broadcast.EventSensorData,
		StationID:  binding.StationID,
		SensorType: string(binding.Type),
		Timestamp:  now,
		Payload:    record,
	})

	alert := o.analyzeRecord(binding, record)

	riskLevel := "LOW"
	if alert != nil && (alert.Level == model.LevelWarning || alert.Level == model.LevelCritical) {
		riskLevel = string(alert.Level)
	}
	o.broadcaster.Publish(broadcast.Event{
		Type:      broadcast.EventStationStatus,
		StationID: binding.StationID,
		Timestamp: now,
		Payload:   map[string]any{"station_id": binding.StationID, "risk_level": riskLevel},
	})

	if alert != nil {
		o.broadcaster.Publish(broadcast.Event{
			Type:      broadcast.EventAlert,
			StationID: binding.StationID,
			Level:     string(alert.Level),
			Timestamp: now,
			Payload: map[string]any{
				"station_id": binding.StationID,
				"level":      alert.Level,
				"category":   alert.Category,
				"message":    alert.Message,
				"details":    alert.Details,
			},
		})
		o.metrics.AlertRaised(alert.Category, alert.Level)
	}

	o.persist(ctx, log, binding, record, alert, now)
}

func (o *Orchestrator) handleProgress(log zerolog.Logger, binding *registry.Binding, result processor.Result) {
	if result.Progress == nil {
		return
	}
	log.Info().Str("event", result.Progress.Type).Int("count", result.Progress.Count).Int("target", result.Progress.Target).Msg("GNSS origin progress")
	if result.Progress.Type == "origin_reset" {
		o.metrics.OriginReset(binding.StationID)
	}
}

func (o *Orchestrator) analyzeRecord(binding *registry.Binding, record map[string]any) *analyzer.Alert {
	switch binding.Type {
	case model.DeviceGNSS:
		return o.analyzer.AnalyzeGNSS(binding.StationID, record, binding.Config)
	case model.DeviceRain:
		return o.analyzer.AnalyzeRain(binding.StationID, record, binding.Config)
	case model.DeviceWater:
		return o.analyzer.AnalyzeWater(binding.StationID, record, binding.Config)
	case model.DeviceIMU:
		return o.analyzer.AnalyzeIMU(binding.StationID, record, binding.Config)
	default:
		return nil
	}
}

func (o *Orchestrator) persist(ctx context.Context, log zerolog.Logger, binding *registry.Binding, record map[string]any, alert *analyzer.Alert, now time.Time) {
	if err := o.store.UpdateDeviceHeartbeat(ctx, binding.DeviceID, now); err != nil {
		log.Error().Err(err).Msg("could not update device heartbeat")
	}
	if err := o.store.UpdateStationStatus(ctx, binding.StationID, model.StationOnline, now); err != nil {
		log.Error().Err(err).Msg("could not update station status")
	}

	due := o.saveIntervals.due(binding.DeviceID, binding.Type, binding.Config.SaveIntervals, now)
	if alert != nil || due {
		rec := model.SensorDataRecord{
			StationID: binding.StationID,
			Timestamp: now,
			Type:      binding.Type,
			Record:    record,
		}
		if err := o.store.InsertSensorData(ctx, rec); err != nil {
			log.Error().Err(err).Msg("could not insert sensor data record")
		} else {
			o.saveIntervals.mark(binding.DeviceID, binding.Type, now)
			o.metrics.SensorDataWritten(binding.Type)
		}
	}

	if alert != nil {
		rec := model.AlertRecord{
			StationID: binding.StationID,
			Timestamp: now,
			Level:     alert.Level,
			Category:  alert.Category,
			Message:   alert.Message,
		}
		if err := o.store.InsertAlert(ctx, rec); err != nil {
			log.Error().Err(err).Msg("could not insert alert record")
		}
	}
}
