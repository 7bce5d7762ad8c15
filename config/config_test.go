package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/config"
)

func TestLoadAppliesFlagOverrides(t *testing.T) {
	cfg, err := config.Load([]string{
		"--broker-url=tcp://broker.local:1883",
		"--reload-interval=10s",
		"--cipher-key=0123456789abcdef",
		"--cipher-iv=fedcba9876543210",
	})
	require.NoError(t, err)
	require.Equal(t, "tcp://broker.local:1883", cfg.BrokerURL)
	require.Equal(t, 10*time.Second, cfg.ReloadInterval)
}

func TestLoadRequiresCipherMaterial(t *testing.T) {
	_, err := config.Load([]string{})
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.Load([]string{
		"--cipher-key=0123456789abcdef",
		"--cipher-iv=fedcba9876543210",
	})
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 30*time.Second, cfg.ReloadInterval)
	require.Equal(t, ":8080", cfg.AdminHost)
}
