package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/metrics"
	"github.com/tundzai001/land-slide-web/model"
)

func TestFrameDroppedIncrementsByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	c.FrameDropped(model.DeviceRain, "decode_failed")
	c.FrameDropped(model.DeviceRain, "decode_failed")
	c.FrameDropped(model.DeviceGNSS, "processor_dropped")

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != "landslide_backbone_frames_dropped_total" {
			continue
		}
		for _, m := range f.Metric {
			total += m.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(3), total)
}

func TestAlertRaisedLabelsByCategoryAndLevel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	c.AlertRaised(model.CategoryGNSSVelocity, model.LevelCritical)

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() != "landslide_backbone_alerts_raised_total" {
			continue
		}
		for _, m := range f.Metric {
			found = found || hasLabel(m, "category", "gnss_velocity")
		}
	}
	require.True(t, found)
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, l := range m.Label {
		if l.GetName() == name && l.GetValue() == value {
			return true
		}
	}
	return false
}
