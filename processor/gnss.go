package processor

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tundzai001/land-slide-web/geodesy"
	"github.com/tundzai001/land-slide-web/model"
)

// GNSSState is the state of the origin-locking state machine (spec §4.1).
type GNSSState uint8

const (
	StateAwaitingCandidates GNSSState = iota
	StateOriginLocked
)

// OriginStore is the subset of the persistence gateway the GNSS processor
// needs: load a previously locked origin on startup, and save one on lock.
type OriginStore interface {
	LoadGNSSOrigin(ctx context.Context, deviceID string) (*model.GNSSOrigin, error)
	SaveGNSSOrigin(ctx context.Context, origin model.GNSSOrigin) error
}

// GNSSConfig holds the tunable origin-locking parameters (spec §4.1).
type GNSSConfig struct {
	RequiredCandidates int
	MaxSpreadMeters    float64
	VelocityWindow     int
	MinFixQuality      int
}

// DefaultGNSSConfig returns the spec's default tuning.
func DefaultGNSSConfig() GNSSConfig {
	return GNSSConfig{
		RequiredCandidates: 5,
		MaxSpreadMeters:    5.0,
		VelocityWindow:     5,
		MinFixQuality:      4,
	}
}

type candidate struct {
	lat, lon, h float64
}

type sample struct {
	t    time.Time
	ecef geodesy.Vector3
}

// GNSSProcessor converts a stream of GNGGA-style frames into ENU
// displacement and velocity records, using a station-local origin learned
// from an initial burst of fixes (or loaded from persisted calibration).
type GNSSProcessor struct {
	cfg GNSSConfig
	log zerolog.Logger

	mu         sync.Mutex
	state      GNSSState
	candidates []candidate
	origin     *lockedOrigin
	history    []sample

	lowQualityRejected int
	originResets       int

	store    OriginStore
	deviceID string
}

type lockedOrigin struct {
	lat, lon, h float64
	ecef        geodesy.Vector3
	rotation    geodesy.Matrix3
}

// NewGNSSProcessor constructs a processor in AWAITING_CANDIDATES and, if a
// store and device ID are given, kicks off an asynchronous attempt to load
// a persisted origin from the constructor itself; there is no separate
// start step. Construction never blocks: the processor proceeds in
// AWAITING_CANDIDATES until the load (if any) completes.
func NewGNSSProcessor(log zerolog.Logger, cfg GNSSConfig, store OriginStore, deviceID string) *GNSSProcessor {
	p := &GNSSProcessor{
		cfg:      cfg,
		log:      log.With().Str("processor", "gnss").Str("device", deviceID).Logger(),
		state:    StateAwaitingCandidates,
		store:    store,
		deviceID: deviceID,
	}
	if store != nil && deviceID != "" {
		go p.loadOrigin()
	}
	return p
}

func (p *GNSSProcessor) loadOrigin() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	origin, err := p.store.LoadGNSSOrigin(ctx, p.deviceID)
	if err != nil {
		p.log.Warn().Err(err).Msg("could not load persisted GNSS origin")
		return
	}
	if origin == nil || !origin.HasRotation() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateOriginLocked {
		// A fresh lock happened while the load was in flight; keep it.
		return
	}
	p.origin = &lockedOrigin{
		lat:      origin.Latitude,
		lon:      origin.Longitude,
		h:        origin.Height,
		ecef:     geodesy.Vector3{X: origin.ECEFOrigin[0], Y: origin.ECEFOrigin[1], Z: origin.ECEFOrigin[2]},
		rotation: geodesy.UnflattenMatrix3(origin.RotationMatrix),
	}
	p.state = StateOriginLocked
	p.log.Info().Msg("GNSS origin restored from persisted calibration")
}

// Stats returns a snapshot of the processor's rejection/reset counters.
func (p *GNSSProcessor) Stats() (lowQualityRejected, originResets int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lowQualityRejected, p.originResets
}

// Process consumes one GNGGA-style NMEA frame.
func (p *GNSSProcessor) Process(ctx context.Context, frame []byte, t time.Time) Result {
	if !utf8.Valid(frame) {
		return Result{Kind: ResultDropped}
	}
	fields := strings.Split(string(frame), ",")
	if len(fields) < 10 || fields[2] == "" || fields[4] == "" {
		return Result{Kind: ResultDropped}
	}

	fixQuality, _ := strconv.Atoi(fields[6])

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateAwaitingCandidates:
		return p.handleCollection(fields, fixQuality)
	case StateOriginLocked:
		return p.handleProcessing(ctx, fields, fixQuality, t)
	default:
		return Result{Kind: ResultDropped}
	}
}

func parseGNGGA(fields []string) (lat, lon, h float64, fixQuality, numSats int, hdop float64, ok bool) {
	latStr, lonStr := fields[2], fields[4]
	latDir, lonDir := fields[3], fields[5]
	if len(latStr) < 3 || len(lonStr) < 4 {
		return 0, 0, 0, 0, 0, 0, false
	}

	latDeg, err1 := strconv.ParseFloat(latStr[:2], 64)
	latMin, err2 := strconv.ParseFloat(latStr[2:], 64)
	lonDeg, err3 := strconv.ParseFloat(lonStr[:3], 64)
	lonMin, err4 := strconv.ParseFloat(lonStr[3:], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return 0, 0, 0, 0, 0, 0, false
	}

	lat = latDeg + latMin/60.0
	if latDir == "S" {
		lat = -lat
	}
	lon = lonDeg + lonMin/60.0
	if lonDir == "W" {
		lon = -lon
	}

	if len(fields) > 9 && fields[9] != "" {
		h, _ = strconv.ParseFloat(fields[9], 64)
	}
	if fields[6] != "" {
		fixQuality, _ = strconv.Atoi(fields[6])
	}
	if len(fields) > 7 && fields[7] != "" {
		numSats, _ = strconv.Atoi(fields[7])
	}
	hdop = 99.9
	if len(fields) > 8 && fields[8] != "" {
		hdop, _ = strconv.ParseFloat(fields[8], 64)
	}
	return lat, lon, h, fixQuality, numSats, hdop, true
}

func (p *GNSSProcessor) handleCollection(fields []string, fixQuality int) Result {
	if fixQuality < p.cfg.MinFixQuality {
		p.lowQualityRejected++
		return Result{Kind: ResultProgress, Progress: &ProgressEvent{
			Type:    "origin_collecting",
			Message: "waiting for quality fix",
		}}
	}

	lat, lon, h, _, _, _, ok := parseGNGGA(fields)
	if !ok {
		return Result{Kind: ResultDropped}
	}

	p.candidates = append(p.candidates, candidate{lat: lat, lon: lon, h: h})
	if len(p.candidates) < p.cfg.RequiredCandidates {
		return Result{Kind: ResultProgress, Progress: &ProgressEvent{
			Type:   "origin_collecting",
			Count:  len(p.candidates),
			Target: p.cfg.RequiredCandidates,
		}}
	}

	var sumLat, sumLon, sumH float64
	for _, c := range p.candidates {
		sumLat += c.lat
		sumLon += c.lon
		sumH += c.h
	}
	n := float64(len(p.candidates))
	centerLat, centerLon, centerH := sumLat/n, sumLon/n, sumH/n

	var maxDist float64
	for _, c := range p.candidates {
		d := geodesy.Haversine3D(centerLat, centerLon, centerH, c.lat, c.lon, c.h)
		if d > maxDist {
			maxDist = d
		}
	}

	if maxDist > p.cfg.MaxSpreadMeters {
		p.candidates = nil
		p.originResets++
		return Result{Kind: ResultProgress, Progress: &ProgressEvent{
			Type:    "origin_reset",
			Message: "candidate spread exceeded threshold",
		}}
	}

	ecefOrigin := geodesy.ECEF(centerLat, centerLon, centerH)
	rotation := geodesy.Rotation(centerLat, centerLon)
	p.origin = &lockedOrigin{lat: centerLat, lon: centerLon, h: centerH, ecef: ecefOrigin, rotation: rotation}
	p.state = StateOriginLocked
	numPoints := len(p.candidates)
	p.candidates = nil

	if p.store != nil && p.deviceID != "" {
		origin := model.GNSSOrigin{
			DeviceID:       p.deviceID,
			Latitude:       centerLat,
			Longitude:      centerLon,
			Height:         centerH,
			LockedAt:       time.Now(),
			SpreadMeters:   maxDist,
			NumPoints:      numPoints,
			RotationMatrix: rotation.Flatten(),
			ECEFOrigin:     [3]float64{ecefOrigin.X, ecefOrigin.Y, ecefOrigin.Z},
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := p.store.SaveGNSSOrigin(ctx, origin); err != nil {
				p.log.Error().Err(err).Msg("could not persist GNSS origin")
			}
		}()
	}

	return Result{Kind: ResultProgress, Progress: &ProgressEvent{
		Type: "origin_locked",
		Origin: map[string]any{
			"lat": centerLat, "lon": centerLon, "h": centerH,
			"spread_meters": maxDist, "num_points": numPoints,
		},
	}}
}

func (p *GNSSProcessor) handleProcessing(_ context.Context, fields []string, fixQuality int, t time.Time) Result {
	if fixQuality < p.cfg.MinFixQuality {
		p.lowQualityRejected++
		return Result{Kind: ResultDropped}
	}

	lat, lon, h, _, numSats, hdop, ok := parseGNGGA(fields)
	if !ok {
		return Result{Kind: ResultDropped}
	}

	ecef := geodesy.ECEF(lat, lon, h)
	p.history = append(p.history, sample{t: t, ecef: ecef})
	cap := p.cfg.VelocityWindow + 1
	if len(p.history) > cap {
		p.history = p.history[len(p.history)-cap:]
	}

	rot := p.origin.rotation
	var velocities []geodesy.Vector3
	for i := 1; i < len(p.history); i++ {
		dt := p.history[i].t.Sub(p.history[i-1].t).Seconds()
		if dt < 0.01 {
			continue
		}
		vEcef := p.history[i].ecef.Sub(p.history[i-1].ecef).Scale(1 / dt)
		velocities = append(velocities, rot.Apply(vEcef))
	}

	// With no usable pair yet (first frame after lock, or every Δt below
	// 0.01 s) the reported velocity is zero.
	var vAvg geodesy.Vector3
	switch {
	case len(velocities) == 0:
	case len(p.history) >= p.cfg.VelocityWindow:
		for _, v := range velocities {
			vAvg = vAvg.Add(v)
		}
		vAvg = vAvg.Scale(1 / float64(len(velocities)))
	default:
		vAvg = velocities[len(velocities)-1]
	}

	posENU := rot.Apply(ecef.Sub(p.origin.ecef))
	speed2D := math.Sqrt(vAvg.X*vAvg.X + vAvg.Y*vAvg.Y)

	record := map[string]any{
		"lat": lat, "lon": lon, "h": h,
		"pos_e": posENU.X, "pos_n": posENU.Y, "pos_u": posENU.Z,
		"total_displacement_mm": 1000 * posENU.Norm(),
		"vel_e":                 vAvg.X, "vel_n": vAvg.Y, "vel_u": vAvg.Z,
		"speed_2d":              speed2D,
		"speed_2d_mm_s":         1000 * speed2D,
		"fix_quality":           fixQuality,
		"num_sats":              numSats,
		"hdop":                  hdop,
		"timestamp":             t,
	}
	return Result{Kind: ResultRecord, Record: record}
}
