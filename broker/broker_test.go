package broker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	require.Equal(t, "disconnected", StateDisconnected.String())
	require.Equal(t, "connecting", StateConnecting.String())
	require.Equal(t, "connected", StateConnected.String())
	require.Equal(t, "draining", StateDraining.String())
}

func TestSubscribeBeforeConnectOnlyTracksTopic(t *testing.T) {
	c := New(zerolog.Nop(), Config{BrokerURL: "tcp://127.0.0.1:1", ClientID: "test"}, func(string, []byte) {})

	require.NoError(t, c.Subscribe("stations/+/gnss"))
	require.Contains(t, c.topics, "stations/+/gnss")

	require.NoError(t, c.Unsubscribe("stations/+/gnss"))
	require.NotContains(t, c.topics, "stations/+/gnss")
}

func TestBackoffScheduleIsLinearThenCapped(t *testing.T) {
	require.Equal(t, 5*time.Second, backoffSchedule[0])
	require.Equal(t, 10*time.Second, backoffSchedule[1])
}
