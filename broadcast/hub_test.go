package broadcast_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/broadcast"
)

type recordingObserver struct {
	received []broadcast.Event
	fail     bool
}

func (r *recordingObserver) Send(event broadcast.Event) error {
	if r.fail {
		return errors.New("send failed")
	}
	r.received = append(r.received, event)
	return nil
}

func TestHubDoesNotCrossBlockSensorTypesOnSameStation(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop(), nil)
	obs := &recordingObserver{}
	hub.Subscribe(obs)

	base := time.Unix(0, 0)
	hub.Publish(broadcast.Event{Type: broadcast.EventSensorData, StationID: "st-1", SensorType: "rain", Timestamp: base})
	hub.Publish(broadcast.Event{Type: broadcast.EventSensorData, StationID: "st-1", SensorType: "water", Timestamp: base.Add(100 * time.Millisecond)})
	hub.Publish(broadcast.Event{Type: broadcast.EventSensorData, StationID: "st-1", SensorType: "rain", Timestamp: base.Add(600 * time.Millisecond)})

	require.Len(t, obs.received, 3)
}

func TestHubThrottlesStationStatusPerStation(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop(), nil)
	obs := &recordingObserver{}
	hub.Subscribe(obs)

	base := time.Unix(0, 0)
	hub.Publish(broadcast.Event{Type: broadcast.EventStationStatus, StationID: "st-1", Timestamp: base})
	hub.Publish(broadcast.Event{Type: broadcast.EventStationStatus, StationID: "st-1", Timestamp: base.Add(100 * time.Millisecond)})
	hub.Publish(broadcast.Event{Type: broadcast.EventStationStatus, StationID: "st-1", Timestamp: base.Add(600 * time.Millisecond)})

	require.Len(t, obs.received, 2)
}

func TestHubThrottlesSensorDataPerSensorType(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop(), nil)
	obs := &recordingObserver{}
	hub.Subscribe(obs)

	base := time.Unix(0, 0)
	hub.Publish(broadcast.Event{Type: broadcast.EventSensorData, StationID: "st-1", SensorType: "rain", Timestamp: base})
	hub.Publish(broadcast.Event{Type: broadcast.EventSensorData, StationID: "st-1", SensorType: "rain", Timestamp: base.Add(50 * time.Millisecond)})

	require.Len(t, obs.received, 1)
}

func TestHubNeverThrottlesAlerts(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop(), nil)
	obs := &recordingObserver{}
	hub.Subscribe(obs)

	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		hub.Publish(broadcast.Event{Type: broadcast.EventAlert, StationID: "st-1", Level: "CRITICAL", Timestamp: base})
	}

	require.Len(t, obs.received, 5)
}

func TestHubDropsObserverAfterFailedSend(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop(), nil)
	obs := &recordingObserver{fail: true}
	hub.Subscribe(obs)

	hub.Publish(broadcast.Event{Type: broadcast.EventAlert, StationID: "st-1", Timestamp: time.Unix(0, 0)})

	good := &recordingObserver{}
	hub.Subscribe(good)
	hub.Publish(broadcast.Event{Type: broadcast.EventAlert, StationID: "st-1", Timestamp: time.Unix(1, 0)})

	require.Len(t, good.received, 1)
}
