package broadcast

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Minimum spacing between station_status broadcasts for one station, and
// between sensor_data broadcasts for one (station, sensor type). Alerts, and
// any event with a Level set, bypass both windows; a landslide warning must
// never wait behind a throttle.
const (
	stationThrottle    = 500 * time.Millisecond
	sensorTypeThrottle = 100 * time.Millisecond
)

// Observer is one connected client able to receive events. A non-nil error
// from Send is treated as a dead connection and the observer is dropped.
type Observer interface {
	Send(event Event) error
}

// Hub fans every published event out to the current set of observers,
// generalizing the teacher's fixed two-queue consumer into a dynamic,
// mutex-guarded observer set (spec §5, §6). Sensor data events are
// throttled per (station, sensor type) and station_status events per
// station; alerts and events with a Level set are always delivered
// immediately.
type Hub struct {
	log     zerolog.Logger
	metrics Metrics

	mu        sync.Mutex
	observers map[Observer]struct{}

	throttleMu  sync.Mutex
	lastStation map[string]time.Time
	lastSensor  map[string]time.Time
}

// Metrics receives throttle-discard observations. It is satisfied by
// metrics.Collectors; callers that don't care pass nil.
type Metrics interface {
	ThrottleDiscard(stationID string)
}

type noopMetrics struct{}

func (noopMetrics) ThrottleDiscard(string) {}

// NewHub constructs an empty Hub. Pass nil for metrics to discard throttle
// observations.
func NewHub(log zerolog.Logger, metrics Metrics) *Hub {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Hub{
		log:         log.With().Str("component", "broadcast").Logger(),
		metrics:     metrics,
		observers:   make(map[Observer]struct{}),
		lastStation: make(map[string]time.Time),
		lastSensor:  make(map[string]time.Time),
	}
}

// Subscribe registers an observer to receive future events.
func (h *Hub) Subscribe(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers[o] = struct{}{}
}

// Unsubscribe removes an observer. It is safe to call on an observer that
// was already removed by a failed send.
func (h *Hub) Unsubscribe(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.observers, o)
}

// Publish delivers an event to every current observer, dropping it first if
// it falls inside a throttle window that applies to its type.
func (h *Hub) Publish(event Event) {
	throttled := event.Type
	if event.Level != "" {
		throttled = ""
	}
	switch throttled {
	case EventSensorData:
		if !h.admitSensorData(event) {
			h.metrics.ThrottleDiscard(event.StationID)
			return
		}
	case EventStationStatus:
		if !h.admitStationStatus(event) {
			h.metrics.ThrottleDiscard(event.StationID)
			return
		}
	}

	h.mu.Lock()
	observers := make([]Observer, 0, len(h.observers))
	for o := range h.observers {
		observers = append(observers, o)
	}
	h.mu.Unlock()

	var dead []Observer
	for _, o := range observers {
		if err := o.Send(event); err != nil {
			h.log.Debug().Err(err).Msg("dropping observer after failed send")
			dead = append(dead, o)
		}
	}
	if len(dead) == 0 {
		return
	}

	h.mu.Lock()
	for _, o := range dead {
		delete(h.observers, o)
	}
	h.mu.Unlock()
}

// admitSensorData reports whether a sensor_data event clears the per-
// (station, sensor type) throttle window, recording the admission time
// when it does. Distinct sensor types on the same station never cross-
// block each other (spec §4.7).
func (h *Hub) admitSensorData(event Event) bool {
	h.throttleMu.Lock()
	defer h.throttleMu.Unlock()

	sensorKey := event.StationID + "|" + event.SensorType
	if last, ok := h.lastSensor[sensorKey]; ok && event.Timestamp.Sub(last) < sensorTypeThrottle {
		return false
	}
	h.lastSensor[sensorKey] = event.Timestamp
	return true
}

// admitStationStatus reports whether a station_status event clears the
// per-station throttle window, recording the admission time when it does.
func (h *Hub) admitStationStatus(event Event) bool {
	h.throttleMu.Lock()
	defer h.throttleMu.Unlock()

	if last, ok := h.lastStation[event.StationID]; ok && event.Timestamp.Sub(last) < stationThrottle {
		return false
	}
	h.lastStation[event.StationID] = event.Timestamp
	return true
}
