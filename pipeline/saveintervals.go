package pipeline

import (
	"sync"
	"time"

	"github.com/tundzai001/land-slide-web/model"
)

// saveIntervalTracker remembers the last throttled-write time per
// (device, sensor type) pair, deciding when a sensor record is due for a
// persisted write independent of whether an alert forces one (spec §4.4
// step 7).
type saveIntervalTracker struct {
	mu       sync.Mutex
	lastSave map[string]time.Time
}

func newSaveIntervalTracker() *saveIntervalTracker {
	return &saveIntervalTracker{lastSave: make(map[string]time.Time)}
}

func (t *saveIntervalTracker) due(deviceID string, typ model.DeviceType, intervals model.SaveIntervals, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := deviceID + "|" + string(typ)
	last, ok := t.lastSave[key]
	if !ok {
		return true
	}
	return now.Sub(last) >= intervalFor(typ, intervals)
}

func (t *saveIntervalTracker) mark(deviceID string, typ model.DeviceType, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSave[deviceID+"|"+string(typ)] = now
}

func intervalFor(typ model.DeviceType, intervals model.SaveIntervals) time.Duration {
	var seconds model.Seconds
	switch typ {
	case model.DeviceGNSS:
		seconds = intervals.GNSS
	case model.DeviceRain:
		seconds = intervals.Rain
	case model.DeviceWater:
		seconds = intervals.Water
	case model.DeviceIMU:
		seconds = intervals.IMU
	default:
		seconds = intervals.Default
	}
	if seconds <= 0 {
		seconds = intervals.Default
	}
	return time.Duration(seconds) * time.Second
}
