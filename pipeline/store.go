package pipeline

import (
	"context"
	"time"

	"github.com/tundzai001/land-slide-web/model"
)

// Store is the subset of the persistence gateway the orchestrator writes
// to (spec §4.4 step 7).
type Store interface {
	UpdateDeviceHeartbeat(ctx context.Context, deviceID string, t time.Time) error
	UpdateStationStatus(ctx context.Context, stationID string, status model.StationStatus, t time.Time) error
	InsertSensorData(ctx context.Context, rec model.SensorDataRecord) error
	InsertAlert(ctx context.Context, rec model.AlertRecord) error
}
