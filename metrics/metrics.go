// Package metrics exposes the ingestion pipeline's health as prometheus
// collectors: frames dropped by reason, alerts raised by category, sensor
// records written, GNSS origin resets, and broadcast throttle discards.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tundzai001/land-slide-web/model"
)

const namespace = "landslide_backbone"

// Collectors bundles every metric the backbone registers, and satisfies
// pipeline.Metrics directly.
type Collectors struct {
	framesDropped     *prometheus.CounterVec
	alertsRaised      *prometheus.CounterVec
	sensorDataWritten *prometheus.CounterVec
	originResets      *prometheus.CounterVec
	throttleDiscards  *prometheus.CounterVec
}

// New registers every collector against reg and returns the bundle. Pass
// prometheus.NewRegistry() in tests to avoid polluting the default registry.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Number of inbound frames dropped before they became a sensor record.",
		}, []string{"device_type", "reason"}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Number of alerts raised by the risk analyzer.",
		}, []string{"category", "level"}),
		sensorDataWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_data_written_total",
			Help:      "Number of sensor data records persisted to the data store.",
		}, []string{"device_type"}),
		originResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gnss_origin_resets_total",
			Help:      "Number of times a GNSS origin was discarded due to candidate dispersion.",
		}, []string{"station_id"}),
		throttleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_throttle_discards_total",
			Help:      "Number of sensor_data and station_status broadcast events dropped by a throttle window.",
		}, []string{"station_id"}),
	}

	reg.MustRegister(
		c.framesDropped,
		c.alertsRaised,
		c.sensorDataWritten,
		c.originResets,
		c.throttleDiscards,
	)
	return c
}

// FrameDropped records one frame never reaching a sensor record.
func (c *Collectors) FrameDropped(stationType model.DeviceType, reason string) {
	c.framesDropped.WithLabelValues(string(stationType), reason).Inc()
}

// AlertRaised records one alert crossing the debounce threshold.
func (c *Collectors) AlertRaised(category model.AlertCategory, level model.AlertLevel) {
	c.alertsRaised.WithLabelValues(string(category), string(level)).Inc()
}

// SensorDataWritten records one record persisted to the data store.
func (c *Collectors) SensorDataWritten(stationType model.DeviceType) {
	c.sensorDataWritten.WithLabelValues(string(stationType)).Inc()
}

// OriginReset records a GNSS processor discarding its candidate set due to
// dispersion and starting collection over.
func (c *Collectors) OriginReset(stationID string) {
	c.originResets.WithLabelValues(stationID).Inc()
}

// ThrottleDiscard records the broadcast hub dropping a sensor_data or
// station_status event inside a throttle window.
func (c *Collectors) ThrottleDiscard(stationID string) {
	c.throttleDiscards.WithLabelValues(stationID).Inc()
}
