package broadcast

import "time"

// EventType is the outbound event discriminator (spec §6).
type EventType string

const (
	EventSensorData    EventType = "sensor_data"
	EventStationStatus EventType = "station_status"
	EventAlert         EventType = "alert"
	EventBatchUpdate   EventType = "batch_update"
	EventPong          EventType = "pong"
)

// Event is one message destined for connected observers. Level is set for
// alert events (and any event the hub should never throttle); StationID
// and SensorType key the per-(station, type) throttle window.
type Event struct {
	Type       EventType
	StationID  string
	SensorType string
	Level      string
	Timestamp  time.Time
	Payload    map[string]any
}
