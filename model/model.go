// Package model defines the core entities of the landslide telemetry
// backbone: projects, stations, devices, GNSS calibration state, and the
// records persisted from the ingestion pipeline.
package model

import "time"

// DeviceType enumerates the sensor kinds the pipeline understands.
type DeviceType string

const (
	DeviceGNSS  DeviceType = "gnss"
	DeviceRain  DeviceType = "rain"
	DeviceWater DeviceType = "water"
	DeviceIMU   DeviceType = "imu"
)

// StationStatus reflects the last-observed health of a station.
type StationStatus string

const (
	StationOnline      StationStatus = "online"
	StationOffline     StationStatus = "offline"
	StationMaintenance StationStatus = "maintenance"
)

// AlertLevel is the severity of a raised alert or live risk broadcast.
type AlertLevel string

const (
	LevelInfo     AlertLevel = "INFO"
	LevelLow      AlertLevel = "LOW"
	LevelMedium   AlertLevel = "MEDIUM"
	LevelWarning  AlertLevel = "WARNING"
	LevelHigh     AlertLevel = "HIGH"
	LevelCritical AlertLevel = "CRITICAL"
	LevelExtreme  AlertLevel = "EXTREME"
)

// AlertCategory identifies which analyzer raised an alert.
type AlertCategory string

const (
	CategoryGNSSVelocity AlertCategory = "gnss_velocity"
	CategoryRainfall     AlertCategory = "rainfall"
	CategoryWaterLevel   AlertCategory = "water_level"
	CategoryShock        AlertCategory = "shock"
)

// Location is a geographic hint attached to a project, station, or device.
type Location struct {
	Latitude   float64 `cbor:"lat"`
	Longitude  float64 `cbor:"lon"`
	Height     float64 `cbor:"h"`
	Provenance string  `cbor:"provenance,omitempty"`
}

// Project groups one or more stations.
type Project struct {
	ID          string    `cbor:"id"`
	Code        string    `cbor:"code"`
	Name        string    `cbor:"name"`
	Description string    `cbor:"description,omitempty"`
	Location    *Location `cbor:"location,omitempty"`
	Active      bool      `cbor:"active"`
	CreatedAt   time.Time `cbor:"created_at"`
	UpdatedAt   time.Time `cbor:"updated_at"`
}

// Station is a monitored location within a project.
type Station struct {
	ID         string        `cbor:"id"`
	Code       string        `cbor:"code"`
	Name       string        `cbor:"name"`
	ProjectID  string        `cbor:"project_id"`
	Location   Location      `cbor:"location"`
	Status     StationStatus `cbor:"status"`
	LastUpdate time.Time     `cbor:"last_update"`
	Config     StationConfig `cbor:"config"`
	CreatedAt  time.Time     `cbor:"created_at"`
	UpdatedAt  time.Time     `cbor:"updated_at"`
}

// Device is one physical sensor attached to a station.
type Device struct {
	ID           string         `cbor:"id"`
	Code         string         `cbor:"code"`
	Name         string         `cbor:"name"`
	StationID    string         `cbor:"station_id"`
	Type         DeviceType     `cbor:"type"`
	Topic        string         `cbor:"topic,omitempty"`
	Position     *Location      `cbor:"position,omitempty"`
	Active       bool           `cbor:"active"`
	LastDataTime time.Time      `cbor:"last_data_time"`
	Overlay      map[string]any `cbor:"overlay,omitempty"`
	CreatedAt    time.Time      `cbor:"created_at"`
	UpdatedAt    time.Time      `cbor:"updated_at"`
}

// GNSSOrigin is the persisted calibration for a single GNSS device.
type GNSSOrigin struct {
	DeviceID      string     `cbor:"device_id"`
	Latitude      float64    `cbor:"lat"`
	Longitude     float64    `cbor:"lon"`
	Height        float64    `cbor:"h"`
	LockedAt      time.Time  `cbor:"locked_at"`
	SpreadMeters  float64    `cbor:"spread_meters"`
	NumPoints     int        `cbor:"num_points"`
	RotationMatrix [9]float64 `cbor:"rotation_matrix"`
	ECEFOrigin    [3]float64 `cbor:"ecef_origin"`
}

// HasRotation reports whether the origin carries a usable rotation matrix;
// an origin with a zero matrix is treated as absent (spec edge-case policy).
func (o GNSSOrigin) HasRotation() bool {
	for _, v := range o.RotationMatrix {
		if v != 0 {
			return true
		}
	}
	return false
}

// SensorDataRecord is a single append-only sample persisted in the data
// store, with up to three cached scalar fields for fast querying.
type SensorDataRecord struct {
	StationID string         `cbor:"station_id"`
	Timestamp time.Time      `cbor:"timestamp"`
	Type      DeviceType     `cbor:"type"`
	Record    map[string]any `cbor:"record"`
	Scalar1   float64        `cbor:"scalar1,omitempty"`
	Scalar2   float64        `cbor:"scalar2,omitempty"`
	Scalar3   float64        `cbor:"scalar3,omitempty"`
}

// AlertRecord is a raised alarm persisted in the data store.
type AlertRecord struct {
	StationID string        `cbor:"station_id"`
	Timestamp time.Time     `cbor:"timestamp"`
	Level     AlertLevel    `cbor:"level"`
	Category  AlertCategory `cbor:"category"`
	Message   string        `cbor:"message"`
	Resolved  bool          `cbor:"resolved"`
}

// GlobalConfig is a single key/value row in the config store.
type GlobalConfig struct {
	Key       string    `cbor:"key"`
	Value     any       `cbor:"value"`
	UpdatedAt time.Time `cbor:"updated_at"`
	UpdatedBy string    `cbor:"updated_by,omitempty"`
}
