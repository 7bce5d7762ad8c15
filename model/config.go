package model

// VelocityUnit is the unit a classification threshold is expressed in.
type VelocityUnit string

const (
	UnitMillimeterSecond VelocityUnit = "mm/s"
	UnitMillimeterDay    VelocityUnit = "mm/day"
	UnitMillimeterYear   VelocityUnit = "mm/year"
	UnitMeterSecond      VelocityUnit = "m/s"
)

// VelocityClass is one entry of the ordered classification table used by
// the risk analyzer for GNSS velocity classification.
type VelocityClass struct {
	Name      string       `cbor:"name"`
	Threshold float64      `cbor:"threshold"`
	Unit      VelocityUnit `cbor:"unit"`
}

// DefaultClassificationTable is used whenever a station has not configured
// its own classification table.
func DefaultClassificationTable() []VelocityClass {
	return []VelocityClass{
		{Name: "Extremely Rapid", Threshold: 5000, Unit: UnitMillimeterSecond},
		{Name: "Very Rapid", Threshold: 50, Unit: UnitMillimeterSecond},
		{Name: "Rapid", Threshold: 0.5, Unit: UnitMillimeterSecond},
		{Name: "Moderate", Threshold: 0.05, Unit: UnitMillimeterSecond},
		{Name: "Slow", Threshold: 0.00005, Unit: UnitMillimeterSecond},
		{Name: "Very Slow", Threshold: 0.0000005, Unit: UnitMillimeterSecond},
		{Name: "Extremely Slow", Threshold: 0, Unit: UnitMillimeterSecond},
	}
}

// RainThresholds holds the per-station rain intensity alert thresholds, in
// mm/h.
type RainThresholds struct {
	Watch    float64 `cbor:"watch"`
	Warning  float64 `cbor:"warning"`
	Critical float64 `cbor:"critical"`
}

// WaterThresholds holds the per-station water level alert thresholds, in
// meters.
type WaterThresholds struct {
	Warning  float64 `cbor:"warning"`
	Critical float64 `cbor:"critical"`
}

// ConfirmSteps holds the per-category confirmation-debounce step counts.
type ConfirmSteps struct {
	GNSS  int `cbor:"gnss"`
	Rain  int `cbor:"rain"`
	Water int `cbor:"water"`
	IMU   int `cbor:"imu"`
}

// SaveIntervals holds the per-sensor-type throttled-write intervals.
type SaveIntervals struct {
	GNSS    Seconds `cbor:"gnss"`
	Rain    Seconds `cbor:"rain"`
	Water   Seconds `cbor:"water"`
	IMU     Seconds `cbor:"imu"`
	Default Seconds `cbor:"default"`
}

// Seconds is a duration expressed as whole seconds, matching the spec's
// wire-level configuration inputs.
type Seconds int64

// StationConfig is the typed, validated-once view over a station's embedded
// configuration document. The raw document is kept alongside it so that
// unrecognized or forward-compatible fields are never silently dropped.
type StationConfig struct {
	Classification []VelocityClass `cbor:"classification,omitempty"`
	Rain           RainThresholds  `cbor:"rain"`
	Water          WaterThresholds `cbor:"water"`
	ShockThreshold float64         `cbor:"shock_threshold_ms2"`
	Confirm        ConfirmSteps    `cbor:"confirm"`
	SaveIntervals  SaveIntervals   `cbor:"save_intervals"`

	Raw map[string]any `cbor:"raw,omitempty"`
}

// DefaultStationConfig returns the station configuration applied when a
// station has not overridden a given category.
func DefaultStationConfig() StationConfig {
	return StationConfig{
		Classification: DefaultClassificationTable(),
		Rain:           RainThresholds{Watch: 10, Warning: 25, Critical: 50},
		Water:          WaterThresholds{Warning: 999, Critical: 999},
		ShockThreshold: 20.0,
		Confirm:        ConfirmSteps{GNSS: 3, Rain: 2, Water: 3, IMU: 1},
		SaveIntervals: SaveIntervals{
			GNSS:    86400,
			Rain:    3600,
			Water:   3600,
			IMU:     2592000,
			Default: 60,
		},
	}
}

// ClassificationOrDefault returns the station's classification table, or
// the package default when none was configured.
func (c StationConfig) ClassificationOrDefault() []VelocityClass {
	if len(c.Classification) == 0 {
		return DefaultClassificationTable()
	}
	return c.Classification
}
