package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// TelemetrySample is one temperature/humidity submission. Empty metadata
// fields are filled from the hardware profile; a zero MeasuredAt means
// "now".
type TelemetrySample struct {
	RoomID      int64
	Temperature float64
	Humidity    float64
	MeasuredAt  time.Time
	Meta        store.TelemetryMetadata
}

// TelemetryOutcome is either accepted (Failure empty, ReadingID set) or a
// rejection reason. Rejections write nothing.
type TelemetryOutcome struct {
	Failure   types.TelemetryFailure
	ReadingID int64
	RoomID    int64
	Bound     bool // this sample performed the first-telemetry binding
}

func (o TelemetryOutcome) Accepted() bool { return o.Failure == types.TelemetryAccepted }

func (o TelemetryOutcome) Response() types.TelemetryResponse {
	if o.Accepted() {
		return types.TelemetryResponse{Status: "OK"}
	}
	return types.TelemetryResponse{Status: "REJECTED", Reason: o.Failure}
}

type TelemetryService struct {
	settings SettingsProvider
	rooms    store.RoomStore
	readings store.TelemetryStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewTelemetryService(settings SettingsProvider, rooms store.RoomStore, readings store.TelemetryStore, logger *slog.Logger) *TelemetryService {
	return &TelemetryService{
		settings: settings,
		rooms:    rooms,
		readings: readings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and stores one sample. An unbound sensor is bound to
// the sample's room in the same transaction that stores its first
// reading; when two first readings race, the bind that commits first wins
// and the other sample is rejected with ROOM_MISMATCH.
func (s *TelemetryService) Record(ctx context.Context, device store.DeviceRecord, in TelemetrySample) (TelemetryOutcome, error) {
	if !device.Active {
		return s.reject(device, in, types.TelemetryDeviceInactive), nil
	}
	if device.Type != types.DeviceRoomSensor {
		return s.reject(device, in, types.TelemetryInvalidDevice), nil
	}

	if _, err := s.rooms.GetRoom(ctx, in.RoomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.reject(device, in, types.TelemetryRoomNotFound), nil
		}
		return TelemetryOutcome{}, fmt.Errorf("lookup room: %w", err)
	}

	if device.RoomID != nil && *device.RoomID != in.RoomID {
		return s.reject(device, in, types.TelemetryRoomMismatch), nil
	}

	cfg, err := s.settings.Current(ctx)
	if err != nil {
		return TelemetryOutcome{}, err
	}

	received := s.now()
	measured := in.MeasuredAt
	if measured.IsZero() {
		measured = received
	}

	p := cfg.HardwareProfile
	rec := store.ReadingRecord{
		DeviceID:    device.ID,
		RoomID:      in.RoomID,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Meta: store.TelemetryMetadata{
			Transport:    firstNonEmpty(in.Meta.Transport, p.Transport),
			Connectivity: firstNonEmpty(in.Meta.Connectivity, p.Connectivity),
			SensorModel:  firstNonEmpty(in.Meta.SensorModel, p.Sensor.Model),
			I2CAddress:   firstNonEmpty(in.Meta.I2CAddress, p.Sensor.I2CAddress),
		},
		MeasuredAt: measured.UTC(),
		ReceivedAt: received,
	}

	var (
		id    int64
		bound bool
	)
	if device.RoomID == nil {
		roomID, readingID, err := s.readings.BindAndInsert(ctx, rec)
		if err != nil {
			return TelemetryOutcome{}, fmt.Errorf("bind room and insert reading: %w", err)
		}
		if roomID != in.RoomID {
			return s.reject(device, in, types.TelemetryRoomMismatch), nil
		}
		id, bound = readingID, true
		s.logger.Info("sensor bound to room", "device_id", device.ID, "room_id", roomID)
	} else {
		id, err = s.readings.InsertReading(ctx, rec)
		if err != nil {
			return TelemetryOutcome{}, fmt.Errorf("insert reading: %w", err)
		}
	}

	s.logger.Debug("telemetry recorded",
		"device_id", device.ID,
		"room_id", in.RoomID,
		"status", Classify(in.Temperature, in.Humidity, cfg.Thresholds),
	)
	return TelemetryOutcome{ReadingID: id, RoomID: in.RoomID, Bound: bound}, nil
}

func (s *TelemetryService) reject(device store.DeviceRecord, in TelemetrySample, f types.TelemetryFailure) TelemetryOutcome {
	s.logger.Warn("telemetry rejected", "device_id", device.ID, "room_id", in.RoomID, "reason", f)
	return TelemetryOutcome{Failure: f, RoomID: in.RoomID}
}
