package processor_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tundzai001/land-slide-web/processor"
)

func TestGNSSLocksOriginAfterRequiredCandidates(t *testing.T) {
	cfg := processor.DefaultGNSSConfig()
	p := processor.NewGNSSProcessor(zerolog.Nop(), cfg, nil, "")
	ctx := context.Background()

	var last processor.Result
	for i := 0; i < cfg.RequiredCandidates; i++ {
		frame := []byte(fmt.Sprintf("$GNGGA,123456.00,2101.6800,N,10551.2400,E,%d,08,0.9,%.2f,M,0.0,M,,", 5, 12.3))
		last = p.Process(ctx, frame, time.Now())
	}

	require.Equal(t, processor.ResultProgress, last.Kind)
	require.Equal(t, "origin_locked", last.Progress.Type)
}

func TestGNSSRejectsLowFixQualityDuringCollection(t *testing.T) {
	cfg := processor.DefaultGNSSConfig()
	p := processor.NewGNSSProcessor(zerolog.Nop(), cfg, nil, "")
	frame := []byte("$GNGGA,123456.00,2101.6800,N,10551.2400,E,1,08,0.9,12.3,M,0.0,M,,")

	r := p.Process(context.Background(), frame, time.Now())
	require.Equal(t, processor.ResultProgress, r.Kind)
	require.Equal(t, "origin_collecting", r.Progress.Type)
	require.Equal(t, 0, r.Progress.Count)
}

func TestGNSSResetsOnCandidateDispersion(t *testing.T) {
	cfg := processor.DefaultGNSSConfig()
	cfg.RequiredCandidates = 2
	p := processor.NewGNSSProcessor(zerolog.Nop(), cfg, nil, "")
	ctx := context.Background()

	p.Process(ctx, []byte("$GNGGA,123456.00,2101.6800,N,10551.2400,E,5,08,0.9,12.3,M,0.0,M,,"), time.Now())
	r := p.Process(ctx, []byte("$GNGGA,123456.00,2201.6800,N,10651.2400,E,5,08,0.9,12.3,M,0.0,M,,"), time.Now())

	require.Equal(t, processor.ResultProgress, r.Kind)
	require.Equal(t, "origin_reset", r.Progress.Type)
}

func TestGNSSEmitsVelocityAfterLock(t *testing.T) {
	cfg := processor.DefaultGNSSConfig()
	cfg.RequiredCandidates = 2
	cfg.VelocityWindow = 2
	p := processor.NewGNSSProcessor(zerolog.Nop(), cfg, nil, "")
	ctx := context.Background()

	fixed := "$GNGGA,123456.00,2101.6800,N,10551.2400,E,5,08,0.9,12.3,M,0.0,M,,"
	p.Process(ctx, []byte(fixed), time.Now())
	p.Process(ctx, []byte(fixed), time.Now())

	r := p.Process(ctx, []byte(fixed), time.Now().Add(time.Second))
	require.Equal(t, processor.ResultRecord, r.Kind)
	require.Contains(t, r.Record, "speed_2d")
	require.Contains(t, r.Record, "total_displacement_mm")
}

func TestGNSSDropsUnparseableFrame(t *testing.T) {
	cfg := processor.DefaultGNSSConfig()
	p := processor.NewGNSSProcessor(zerolog.Nop(), cfg, nil, "")
	r := p.Process(context.Background(), []byte("not a frame"), time.Now())
	require.Equal(t, processor.ResultDropped, r.Kind)
}
