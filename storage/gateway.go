package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/tundzai001/land-slide-web/model"
)

// Gateway is the persistence gateway: three logical stores (auth, config,
// data) behind one typed API, matching spec §4.6. Read operations serve the
// topic registry and GNSS processors; write operations serve the pipeline
// orchestrator.
type Gateway struct {
	log    zerolog.Logger
	Auth   *Store
	Config *Store
	Data   *Store
}

// OpenGateway opens the three underlying stores at the given directories.
func OpenGateway(log zerolog.Logger, authDir, configDir, dataDir string) (*Gateway, error) {
	auth, err := Open(log.With().Str("store", "auth").Logger(), authDir)
	if err != nil {
		return nil, fmt.Errorf("could not open auth store: %w", err)
	}
	cfg, err := Open(log.With().Str("store", "config").Logger(), configDir)
	if err != nil {
		return nil, fmt.Errorf("could not open config store: %w", err)
	}
	data, err := Open(log.With().Str("store", "data").Logger(), dataDir)
	if err != nil {
		return nil, fmt.Errorf("could not open data store: %w", err)
	}
	return &Gateway{log: log, Auth: auth, Config: cfg, Data: data}, nil
}

// Close releases all three underlying stores.
func (g *Gateway) Close() error {
	var errs []error
	if err := g.Auth.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := g.Config.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := g.Data.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("could not close all stores: %v", errs)
	}
	return nil
}

// SaveProject upserts a project in the config store.
func (g *Gateway) SaveProject(_ context.Context, p model.Project) error {
	return g.Config.write(save(encodeKey(prefixProject, p.ID), p))
}

// SaveStation upserts a station in the config store.
func (g *Gateway) SaveStation(_ context.Context, s model.Station) error {
	return g.Config.write(save(encodeKey(prefixStation, s.ID), s))
}

// SaveDevice upserts a device in the config store.
func (g *Gateway) SaveDevice(_ context.Context, d model.Device) error {
	return g.Config.write(save(encodeKey(prefixDevice, d.ID), d))
}

// UpdateDeviceHeartbeat best-effort refreshes a device's last_data_time
// (spec §4.4 step 7).
func (g *Gateway) UpdateDeviceHeartbeat(_ context.Context, deviceID string, t time.Time) error {
	var device model.Device
	key := encodeKey(prefixDevice, deviceID)
	return g.Config.write(func(tx *badger.Txn) error {
		if err := retrieve(key, &device)(tx); err != nil {
			return fmt.Errorf("could not load device %s: %w", deviceID, err)
		}
		device.LastDataTime = t
		device.UpdatedAt = t
		return save(key, device)(tx)
	})
}

// UpdateStationStatus best-effort refreshes a station's status and
// last_update timestamp (spec §4.4 step 7).
func (g *Gateway) UpdateStationStatus(_ context.Context, stationID string, status model.StationStatus, t time.Time) error {
	var station model.Station
	key := encodeKey(prefixStation, stationID)
	return g.Config.write(func(tx *badger.Txn) error {
		if err := retrieve(key, &station)(tx); err != nil {
			return fmt.Errorf("could not load station %s: %w", stationID, err)
		}
		station.Status = status
		station.LastUpdate = t
		station.UpdatedAt = t
		return save(key, station)(tx)
	})
}

// InsertSensorData appends a sensor data record to the data store, keyed so
// that records for one station and sensor type sort chronologically.
func (g *Gateway) InsertSensorData(_ context.Context, rec model.SensorDataRecord) error {
	key := encodeKey(prefixSensorData, rec.StationID, string(rec.Type), fmt.Sprintf("%020d", rec.Timestamp.UnixNano()))
	return g.Data.write(save(key, rec))
}

// InsertAlert appends an alert record to the data store.
func (g *Gateway) InsertAlert(_ context.Context, rec model.AlertRecord) error {
	key := encodeKey(prefixAlert, rec.StationID, string(rec.Category), fmt.Sprintf("%020d", rec.Timestamp.UnixNano()))
	return g.Data.write(save(key, rec))
}

// ListHistoricalSensorData returns sensor records for a station/type since
// the given time, ordered by timestamp, for long-term trend analysis.
func (g *Gateway) ListHistoricalSensorData(_ context.Context, stationID string, deviceType model.DeviceType, since time.Time) ([]model.SensorDataRecord, error) {
	var out []model.SensorDataRecord
	prefix := encodeKey(prefixSensorData, stationID, string(deviceType))

	err := g.Data.read(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec model.SensorDataRecord
			err := it.Item().Value(func(raw []byte) error {
				raw, err := decompressor.DecodeAll(raw, nil)
				if err != nil {
					return err
				}
				return cbor.Unmarshal(raw, &rec)
			})
			if err != nil {
				return fmt.Errorf("could not decode sensor record: %w", err)
			}
			if rec.Timestamp.Before(since) {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// LoadGNSSOrigin reads a device's persisted calibration, or nil if none
// has ever been saved.
func (g *Gateway) LoadGNSSOrigin(_ context.Context, deviceID string) (*model.GNSSOrigin, error) {
	var origin model.GNSSOrigin
	key := encodeKey(prefixGNSSOrigin, deviceID)
	err := g.Config.read(retrieve(key, &origin))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &origin, nil
}

// SaveGNSSOrigin upserts a device's calibration by device ID.
func (g *Gateway) SaveGNSSOrigin(_ context.Context, origin model.GNSSOrigin) error {
	return g.Config.write(save(encodeKey(prefixGNSSOrigin, origin.DeviceID), origin))
}

// GetGlobal reads a single global configuration row.
func (g *Gateway) GetGlobal(_ context.Context, key string) (*model.GlobalConfig, error) {
	var cfg model.GlobalConfig
	err := g.Config.read(retrieve(encodeKey(prefixGlobalConfig, key), &cfg))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetGlobal upserts a single global configuration row.
func (g *Gateway) SetGlobal(_ context.Context, key string, value any, updatedBy string, t time.Time) error {
	cfg := model.GlobalConfig{Key: key, Value: value, UpdatedAt: t, UpdatedBy: updatedBy}
	return g.Config.write(save(encodeKey(prefixGlobalConfig, key), cfg))
}

// ActiveDevice is the device/station join the topic registry reconciles
// against (spec §4.5).
type ActiveDevice struct {
	DeviceID    string
	DeviceCode  string
	StationID   string
	StationName string
	Type        model.DeviceType
	Topic       string
	Config      model.StationConfig
}

// ListActiveDevices returns every active device's ID, code, type, and
// topic, joined to its station's ID, name, and configuration. Devices whose
// station cannot be loaded are skipped.
func (g *Gateway) ListActiveDevices(_ context.Context) ([]ActiveDevice, error) {
	var devices []model.Device
	err := g.Config.read(func(tx *badger.Txn) error {
		prefix := []byte{prefixDevice}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d model.Device
			err := it.Item().Value(func(raw []byte) error {
				raw, err := decompressor.DecodeAll(raw, nil)
				if err != nil {
					return err
				}
				return cbor.Unmarshal(raw, &d)
			})
			if err != nil {
				return fmt.Errorf("could not decode device: %w", err)
			}
			if d.Active {
				devices = append(devices, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]ActiveDevice, 0, len(devices))
	for _, d := range devices {
		var station model.Station
		err := g.Config.read(retrieve(encodeKey(prefixStation, d.StationID), &station))
		if err != nil {
			g.log.Warn().Err(err).Str("device", d.ID).Str("station", d.StationID).Msg("skipping device with unresolvable station")
			continue
		}
		out = append(out, ActiveDevice{
			DeviceID:    d.ID,
			DeviceCode:  d.Code,
			StationID:   station.ID,
			StationName: station.Name,
			Type:        d.Type,
			Topic:       d.Topic,
			Config:      station.Config,
		})
	}
	return out, nil
}
