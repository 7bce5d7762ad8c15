package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/model"
	"github.com/tundzai001/land-slide-web/registry"
	"github.com/tundzai001/land-slide-web/storage"
)

type fakeStore struct {
	devices []storage.ActiveDevice
}

func (f *fakeStore) ListActiveDevices(context.Context) ([]storage.ActiveDevice, error) {
	return f.devices, nil
}

type fakeBroker struct {
	subscribed   map[string]int
	unsubscribed map[string]int
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subscribed: make(map[string]int), unsubscribed: make(map[string]int)}
}

func (f *fakeBroker) Subscribe(topic string) error {
	f.subscribed[topic]++
	return nil
}

func (f *fakeBroker) Unsubscribe(topic string) error {
	f.unsubscribed[topic]++
	return nil
}

type fakeOrigin struct{}

func (fakeOrigin) LoadGNSSOrigin(context.Context, string) (*model.GNSSOrigin, error) { return nil, nil }
func (fakeOrigin) SaveGNSSOrigin(context.Context, model.GNSSOrigin) error             { return nil }

func TestRegistrySubscribesNewActiveDeviceTopics(t *testing.T) {
	store := &fakeStore{devices: []storage.ActiveDevice{
		{DeviceID: "dev-1", StationID: "st-1", Type: model.DeviceRain, Topic: "stations/st-1/rain"},
	}}
	brokerFake := newFakeBroker()

	r := registry.New(zerolog.Nop(), store, brokerFake, fakeOrigin{}, time.Hour)

	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	// Run's initial reconcile happens synchronously before the ticker is
	// armed, but it races this goroutine's scheduling, so wait briefly.
	waitForCondition(t, func() bool { return brokerFake.subscribed["stations/st-1/rain"] == 1 })

	require.NoError(t, r.Stop())
	<-done

	binding, ok := r.Lookup("stations/st-1/rain")
	require.True(t, ok)
	require.Equal(t, "dev-1", binding.DeviceID)
	require.Equal(t, "st-1", binding.StationID)
}

func TestRegistryUnsubscribesRemovedTopic(t *testing.T) {
	store := &fakeStore{devices: []storage.ActiveDevice{
		{DeviceID: "dev-1", StationID: "st-1", Type: model.DeviceRain, Topic: "stations/st-1/rain"},
	}}
	brokerFake := newFakeBroker()

	r := registry.New(zerolog.Nop(), store, brokerFake, fakeOrigin{}, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	waitForCondition(t, func() bool { return brokerFake.subscribed["stations/st-1/rain"] == 1 })

	store.devices = nil
	waitForCondition(t, func() bool { return brokerFake.unsubscribed["stations/st-1/rain"] == 1 })

	require.NoError(t, r.Stop())
	<-done

	_, ok := r.Lookup("stations/st-1/rain")
	require.False(t, ok)
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
