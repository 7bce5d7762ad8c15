package processor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

type rainFrame struct {
	RainfallMM   *float64 `json:"rainfall_mm"`
	IntensityMMH *float64 `json:"intensity_mm_h"`
}

type rainSample struct {
	t         time.Time
	rainfall  float64
}

// RainProcessor converts tipping-bucket cumulative rainfall readings into a
// rainfall_mm / intensity_mm_h record, falling back to the last valid
// sample rather than dropping a malformed frame (spec §4.2).
type RainProcessor struct {
	log zerolog.Logger

	history []rainSample
	last    map[string]any
	haveLast bool

	malformed int
}

// NewRainProcessor constructs a rain processor defaulting its last-known-
// good rainfall and intensity to zero (spec §4.2; matches the original's
// `last_valid_rainfall`/`last_valid_intensity = 0.0` defaults), so the very
// first malformed frame still emits a fallback record rather than being
// dropped.
func NewRainProcessor(log zerolog.Logger) *RainProcessor {
	return &RainProcessor{
		log: log.With().Str("processor", "rain").Logger(),
		last: map[string]any{
			"rainfall_mm":    0.0,
			"intensity_mm_h": 0.0,
			"is_fallback":    false,
		},
		haveLast: true,
	}
}

func (p *RainProcessor) Process(_ context.Context, frame []byte, t time.Time) Result {
	var f rainFrame
	if err := json.Unmarshal(frame, &f); err != nil || f.RainfallMM == nil {
		p.malformed++
		return p.fallback(t)
	}

	rainfall := *f.RainfallMM

	var intensity float64
	if f.IntensityMMH != nil {
		intensity = round2(*f.IntensityMMH)
	} else if len(p.history) > 0 {
		prev := p.history[len(p.history)-1]
		dt := t.Sub(prev.t).Seconds()
		delta := rainfall - prev.rainfall
		switch {
		case delta < 0:
			intensity = 0 // gauge reset
		case dt > 0 && dt < 3600:
			intensity = round2(delta / dt * 3600)
		default:
			intensity = 0
		}
	}

	p.history = append(p.history, rainSample{t: t, rainfall: rainfall})
	if len(p.history) > 60 {
		p.history = p.history[len(p.history)-60:]
	}

	record := map[string]any{
		"rainfall_mm":    rainfall,
		"intensity_mm_h": intensity,
		"is_fallback":    false,
		"timestamp":      t,
	}
	p.last = record
	p.haveLast = true
	return Result{Kind: ResultRecord, Record: record}
}

func (p *RainProcessor) fallback(t time.Time) Result {
	fallback := cloneRecord(p.last)
	fallback["is_fallback"] = true
	fallback["timestamp"] = t
	return Result{Kind: ResultRecord, Record: fallback}
}

func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func cloneRecord(r map[string]any) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
