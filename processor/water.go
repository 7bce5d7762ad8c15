package processor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

type waterFrame struct {
	Value      *float64 `json:"value"`
	WaterLevel *float64 `json:"water_level"`
}

type waterSample struct {
	t     time.Time
	level float64
}

// WaterConfig bounds the accepted water level range.
type WaterConfig struct {
	MinMeters float64
	MaxMeters float64
}

// DefaultWaterConfig matches the spec's default accepted range.
func DefaultWaterConfig() WaterConfig {
	return WaterConfig{MinMeters: 0, MaxMeters: 50}
}

// WaterProcessor tracks a water-level gauge, falling back to the last valid
// reading whenever the frame is missing or out of range (spec §4.2).
type WaterProcessor struct {
	cfg WaterConfig
	log zerolog.Logger

	history  []waterSample
	last     map[string]any
	haveLast bool

	malformed int
}

// NewWaterProcessor constructs a water processor defaulting its last-known-
// good reading to zero (spec §4.2; matches the original's `last_valid_value
// = 0.0` default), so the very first malformed frame still emits a
// fallback record rather than being dropped.
func NewWaterProcessor(log zerolog.Logger, cfg WaterConfig) *WaterProcessor {
	return &WaterProcessor{
		cfg: cfg,
		log: log.With().Str("processor", "water").Logger(),
		last: map[string]any{
			"water_level": 0.0,
			"is_fallback": false,
		},
		haveLast: true,
	}
}

func (p *WaterProcessor) Process(_ context.Context, frame []byte, t time.Time) Result {
	var f waterFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		p.malformed++
		return p.fallback(t)
	}

	var level float64
	var ok bool
	switch {
	case f.Value != nil:
		level, ok = *f.Value, true
	case f.WaterLevel != nil:
		level, ok = *f.WaterLevel, true
	}
	if !ok || level < p.cfg.MinMeters || level > p.cfg.MaxMeters {
		p.malformed++
		return p.fallback(t)
	}

	p.history = append(p.history, waterSample{t: t, level: level})
	if len(p.history) > 36 {
		p.history = p.history[len(p.history)-36:]
	}

	record := map[string]any{
		"water_level": level,
		"is_fallback": false,
		"timestamp":   t,
	}
	p.last = record
	p.haveLast = true
	return Result{Kind: ResultRecord, Record: record}
}

func (p *WaterProcessor) fallback(t time.Time) Result {
	fallback := cloneRecord(p.last)
	fallback["is_fallback"] = true
	fallback["timestamp"] = t
	return Result{Kind: ResultRecord, Record: fallback}
}
