package processor

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/rs/zerolog"
)

type imuFrame struct {
	AX *float64 `json:"ax"`
	AY *float64 `json:"ay"`
	AZ *float64 `json:"az"`
	GX *float64 `json:"gx"`
	GY *float64 `json:"gy"`
	GZ *float64 `json:"gz"`

	AccelX *float64 `json:"accel_x"`
	AccelY *float64 `json:"accel_y"`
	AccelZ *float64 `json:"accel_z"`
	GyroX  *float64 `json:"gyro_x"`
	GyroY  *float64 `json:"gyro_y"`
	GyroZ  *float64 `json:"gyro_z"`

	Roll  *float64 `json:"roll"`
	Pitch *float64 `json:"pitch"`
	Yaw   *float64 `json:"yaw"`
}

func firstNonNil(vals ...*float64) (float64, bool) {
	for _, v := range vals {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

// IMUProcessor converts tri-axial acceleration and angular rate readings
// into total acceleration and orientation, carrying yaw forward and
// falling back to the last valid record on parse failure (spec §4.2).
type IMUProcessor struct {
	log zerolog.Logger

	lastYaw  float64
	haveYaw  bool
	last     map[string]any
	haveLast bool

	malformed int
}

// NewIMUProcessor constructs an IMU processor defaulting its last-known-
// good reading to the original's resting-on-Earth defaults (ax=ay=0,
// az=9.8, gyro axes and roll/pitch/yaw zero, total_accel=9.8; spec §4.2),
// so the very first malformed frame still emits a fallback record rather
// than being dropped.
func NewIMUProcessor(log zerolog.Logger) *IMUProcessor {
	return &IMUProcessor{
		log:     log.With().Str("processor", "imu").Logger(),
		lastYaw: 0,
		haveYaw: true,
		last: map[string]any{
			"ax": 0.0, "ay": 0.0, "az": 9.8,
			"gx": 0.0, "gy": 0.0, "gz": 0.0,
			"total_accel": 9.8,
			"roll":        0.0,
			"pitch":       0.0,
			"yaw":         0.0,
			"is_fallback": false,
		},
		haveLast: true,
	}
}

func (p *IMUProcessor) Process(_ context.Context, frame []byte, t time.Time) Result {
	var f imuFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		p.malformed++
		return p.fallback(t)
	}

	ax, okAX := firstNonNil(f.AX, f.AccelX)
	ay, okAY := firstNonNil(f.AY, f.AccelY)
	az, okAZ := firstNonNil(f.AZ, f.AccelZ)
	gx, _ := firstNonNil(f.GX, f.GyroX)
	gy, _ := firstNonNil(f.GY, f.GyroY)
	gz, _ := firstNonNil(f.GZ, f.GyroZ)
	if !okAX || !okAY || !okAZ {
		p.malformed++
		return p.fallback(t)
	}

	totalAccel := math.Sqrt(ax*ax + ay*ay + az*az)

	roll, hasRoll := firstNonNil(f.Roll, nil)
	pitch, hasPitch := firstNonNil(f.Pitch, nil)
	if !hasRoll {
		roll = math.Atan2(ay, az) * 180 / math.Pi
	}
	if !hasPitch {
		pitch = math.Atan2(-ax, math.Sqrt(ay*ay+az*az)) * 180 / math.Pi
	}

	yaw := p.lastYaw
	if v, ok := firstNonNil(f.Yaw, nil); ok {
		yaw = v
	}
	p.lastYaw = yaw
	p.haveYaw = true

	record := map[string]any{
		"ax": ax, "ay": ay, "az": az,
		"gx": gx, "gy": gy, "gz": gz,
		"total_accel": totalAccel,
		"roll":        roll,
		"pitch":       pitch,
		"yaw":         yaw,
		"is_fallback": false,
		"timestamp":   t,
	}
	p.last = record
	p.haveLast = true
	return Result{Kind: ResultRecord, Record: record}
}

func (p *IMUProcessor) fallback(t time.Time) Result {
	fallback := cloneRecord(p.last)
	fallback["is_fallback"] = true
	fallback["timestamp"] = t
	return Result{Kind: ResultRecord, Record: fallback}
}
