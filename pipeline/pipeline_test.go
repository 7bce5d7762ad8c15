package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/analyzer"
	"github.com/tundzai001/land-slide-web/broadcast"
	"github.com/tundzai001/land-slide-web/model"
	"github.com/tundzai001/land-slide-web/pipeline"
	"github.com/tundzai001/land-slide-web/registry"
)

type fakeLookup struct {
	bindings map[string]*registry.Binding
}

func (f fakeLookup) Lookup(topic string) (*registry.Binding, bool) {
	b, ok := f.bindings[topic]
	return b, ok
}

type fakeDecoder struct {
	ok bool
}

func (f fakeDecoder) Decode(raw []byte) ([]byte, bool) { return raw, f.ok }

type fakeBroadcaster struct {
	events []broadcast.Event
}

func (f *fakeBroadcaster) Publish(e broadcast.Event) { f.events = append(f.events, e) }

type fakeAnalyzer struct {
	alert *analyzer.Alert
}

func (f fakeAnalyzer) AnalyzeGNSS(string, map[string]any, model.StationConfig) *analyzer.Alert {
	return f.alert
}
func (f fakeAnalyzer) AnalyzeRain(string, map[string]any, model.StationConfig) *analyzer.Alert {
	return f.alert
}
func (f fakeAnalyzer) AnalyzeWater(string, map[string]any, model.StationConfig) *analyzer.Alert {
	return f.alert
}
func (f fakeAnalyzer) AnalyzeIMU(string, map[string]any, model.StationConfig) *analyzer.Alert {
	return f.alert
}

type fakeStore struct {
	sensorWrites []model.SensorDataRecord
	alertWrites  []model.AlertRecord
}

func (f *fakeStore) UpdateDeviceHeartbeat(context.Context, string, time.Time) error { return nil }
func (f *fakeStore) UpdateStationStatus(context.Context, string, model.StationStatus, time.Time) error {
	return nil
}
func (f *fakeStore) InsertSensorData(_ context.Context, rec model.SensorDataRecord) error {
	f.sensorWrites = append(f.sensorWrites, rec)
	return nil
}
func (f *fakeStore) InsertAlert(_ context.Context, rec model.AlertRecord) error {
	f.alertWrites = append(f.alertWrites, rec)
	return nil
}

func TestHandleFrameDropsUnknownTopicBeforeAnyBroadcast(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &fakeStore{}

	orch := pipeline.New(zerolog.Nop(), fakeLookup{bindings: map[string]*registry.Binding{}}, fakeDecoder{ok: true}, broadcaster, fakeAnalyzer{}, store)

	orch.HandleFrame(context.Background(), "unknown/topic", []byte("x"), time.Now())

	require.Empty(t, broadcaster.events)
	require.Empty(t, store.sensorWrites)
	require.Empty(t, store.alertWrites)
}

func TestHandleFrameDropsFrameThatFailsToDecode(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	store := &fakeStore{}

	binding := &registry.Binding{DeviceID: "dev-1", StationID: "st-1", Type: model.DeviceRain}
	orch := pipeline.New(zerolog.Nop(), fakeLookup{bindings: map[string]*registry.Binding{"sensors/dev-1": binding}}, fakeDecoder{ok: false}, broadcaster, fakeAnalyzer{}, store)

	orch.HandleFrame(context.Background(), "sensors/dev-1", []byte("garbage"), time.Now())

	require.Empty(t, broadcaster.events)
	require.Empty(t, store.sensorWrites)
}
