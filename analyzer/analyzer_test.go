package analyzer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/analyzer"
	"github.com/tundzai001/land-slide-web/model"
)

func rapidRecord() map[string]any {
	return map[string]any{"speed_2d_mm_s": 1.0} // >= Rapid threshold (0.5 mm/s)
}

func slowRecord() map[string]any {
	return map[string]any{"speed_2d_mm_s": 0.0}
}

func TestGNSSDebounceRequiresFullConsecutiveStreakAfterInterruption(t *testing.T) {
	a := analyzer.New()
	cfg := model.DefaultStationConfig()
	cfg.Confirm.GNSS = 3

	var alerts []*analyzer.Alert
	feed := func(r map[string]any) {
		alerts = append(alerts, a.AnalyzeGNSS("station-1", r, cfg))
	}

	feed(rapidRecord())
	feed(rapidRecord())
	feed(slowRecord())
	feed(rapidRecord())
	feed(rapidRecord())
	feed(rapidRecord())

	var fired int
	for i, al := range alerts {
		if al != nil {
			fired++
			require.Equal(t, 5, i, "alert must fire on the sixth frame (index 5)")
			require.Equal(t, model.LevelWarning, al.Level)
		}
	}
	require.Equal(t, 1, fired)
}

func TestIMUShockFiresImmediatelyWhenConfirmStepsIsOne(t *testing.T) {
	a := analyzer.New()
	cfg := model.DefaultStationConfig()
	cfg.Confirm.IMU = 1
	cfg.ShockThreshold = 20.0

	alert := a.AnalyzeIMU("station-1", map[string]any{"total_accel": 25.0}, cfg)
	require.NotNil(t, alert)
	require.Equal(t, model.LevelCritical, alert.Level)
	require.Equal(t, model.CategoryShock, alert.Category)
	require.InDelta(t, 25.0, alert.Details["val"].(float64), 1e-9)
}

func TestIMUNoAlertBelowThreshold(t *testing.T) {
	a := analyzer.New()
	cfg := model.DefaultStationConfig()
	alert := a.AnalyzeIMU("station-1", map[string]any{"total_accel": 1.0}, cfg)
	require.Nil(t, alert)
}

func TestRainDebounceDefaultsToTwoSteps(t *testing.T) {
	a := analyzer.New()
	cfg := model.DefaultStationConfig()

	r1 := a.AnalyzeRain("station-1", map[string]any{"intensity_mm_h": 30.0}, cfg)
	require.Nil(t, r1)
	r2 := a.AnalyzeRain("station-1", map[string]any{"intensity_mm_h": 30.0}, cfg)
	require.NotNil(t, r2)
	require.Equal(t, model.LevelWarning, r2.Level)
}

func TestWaterCriticalOutranksWarning(t *testing.T) {
	a := analyzer.New()
	cfg := model.DefaultStationConfig()
	cfg.Water.Warning, cfg.Water.Critical = 1.0, 2.0
	cfg.Confirm.Water = 1

	alert := a.AnalyzeWater("station-1", map[string]any{"water_level": 3.0}, cfg)
	require.NotNil(t, alert)
	require.Equal(t, model.LevelCritical, alert.Level)
}

func TestAnalyzeLongTermInsufficientDataBelowTwoPoints(t *testing.T) {
	a := analyzer.New()
	cfg := model.DefaultStationConfig()
	result := a.AnalyzeLongTerm("station-1", nil, cfg, 30)
	require.Equal(t, analyzer.LongTermInsufficientData, result.Status)
}

func TestAnalyzeLongTermComputesDisplacementAndVelocity(t *testing.T) {
	a := analyzer.New()
	cfg := model.DefaultStationConfig()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []model.SensorDataRecord{
		{Timestamp: base, Record: map[string]any{"pos_e": 0.0, "pos_n": 0.0, "pos_u": 0.0}},
		{Timestamp: base.Add(30 * 24 * time.Hour), Record: map[string]any{"pos_e": 0.1, "pos_n": 0.0, "pos_u": 0.0}},
	}

	result := a.AnalyzeLongTerm("station-1", records, cfg, 30)
	require.Equal(t, analyzer.LongTermOK, result.Status)
	require.InDelta(t, 100.0, result.TotalDisplacementMM, 1e-6)
	require.InDelta(t, 1216.7, result.VelocityMMYear, 1.0)
	require.Equal(t, analyzer.TrendStable, result.Trend)
}
