package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
	"github.com/BrandonDHaskell/campuswatch/internal/report"
)

// DashboardService serves the read side: stored readings and events,
// classified against the current thresholds at read time.
type DashboardService struct {
	settings SettingsProvider
	rooms    store.RoomStore
	readings store.TelemetryStore
	events   store.AccessEventStore
}

func NewDashboardService(settings SettingsProvider, rooms store.RoomStore, readings store.TelemetryStore, events store.AccessEventStore) *DashboardService {
	return &DashboardService{settings: settings, rooms: rooms, readings: readings, events: events}
}

func (s *DashboardService) Readings(ctx context.Context, f store.ReadingFilter) ([]types.ReadingView, error) {
	cfg, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.roomNames(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.readings.ListReadings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}

	out := make([]types.ReadingView, 0, len(recs))
	for _, r := range recs {
		out = append(out, readingView(r, names[r.RoomID], cfg.Thresholds))
	}
	return out, nil
}

// RoomStatuses lists every room with its newest reading, if any.
func (s *DashboardService) RoomStatuses(ctx context.Context) ([]types.RoomStatusView, error) {
	cfg, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	latest, err := s.readings.LatestPerRoom(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest readings: %w", err)
	}

	byRoom := make(map[int64]store.ReadingRecord, len(latest))
	for _, r := range latest {
		byRoom[r.RoomID] = r
	}

	out := make([]types.RoomStatusView, 0, len(rooms))
	for _, room := range rooms {
		v := types.RoomStatusView{
			RoomID:   room.ID,
			RoomName: room.Name,
			Location: room.Location,
			Active:   room.Active,
		}
		if r, ok := byRoom[room.ID]; ok {
			rv := readingView(r, room.Name, cfg.Thresholds)
			v.Latest = &rv
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *DashboardService) AccessEvents(ctx context.Context, f store.EventFilter) ([]types.AccessEventView, error) {
	recs, err := s.events.ListEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list access events: %w", err)
	}
	out := make([]types.AccessEventView, 0, len(recs))
	for _, e := range recs {
		out = append(out, types.AccessEventView{
			ID:           e.ID,
			DeviceID:     e.DeviceID,
			StudentID:    e.StudentID,
			Result:       e.Result,
			Reason:       e.Reason,
			Transport:    e.Meta.Transport,
			Connectivity: e.Meta.Connectivity,
			ReaderModel:  e.Meta.ReaderModel,
			Frequency:    e.Meta.Frequency,
			CardID:       e.Meta.CardID,
			OccurredAt:   types.FormatTimestamp(e.OccurredAt),
		})
	}
	return out, nil
}

func (s *DashboardService) ReadingsTable(ctx context.Context, f store.ReadingFilter) (report.Table, error) {
	views, err := s.Readings(ctx, f)
	if err != nil {
		return report.Table{}, err
	}
	t := report.Table{
		Title:   "Telemetry readings",
		Headers: []string{"Measured at", "Room", "Device", "Temperature (C)", "Humidity (%)", "Status", "Sensor", "I2C"},
		Rows:    make([][]string, 0, len(views)),
	}
	for _, v := range views {
		room := v.RoomName
		if room == "" {
			room = strconv.FormatInt(v.RoomID, 10)
		}
		t.Rows = append(t.Rows, []string{
			v.MeasuredAt,
			room,
			strconv.FormatInt(v.DeviceID, 10),
			strconv.FormatFloat(v.Temperature, 'f', 2, 64),
			strconv.FormatFloat(v.Humidity, 'f', 2, 64),
			string(v.Status),
			v.SensorModel,
			v.I2CAddress,
		})
	}
	return t, nil
}

func (s *DashboardService) AccessEventsTable(ctx context.Context, f store.EventFilter) (report.Table, error) {
	views, err := s.AccessEvents(ctx, f)
	if err != nil {
		return report.Table{}, err
	}
	t := report.Table{
		Title:   "Access events",
		Headers: []string{"Occurred at", "Device", "Student", "Result", "Reason", "Card", "Reader", "Frequency"},
		Rows:    make([][]string, 0, len(views)),
	}
	for _, v := range views {
		t.Rows = append(t.Rows, []string{
			v.OccurredAt,
			strconv.FormatInt(v.DeviceID, 10),
			strconv.FormatInt(v.StudentID, 10),
			string(v.Result),
			string(v.Reason),
			v.CardID,
			v.ReaderModel,
			v.Frequency,
		})
	}
	return t, nil
}

func (s *DashboardService) roomNames(ctx context.Context) (map[int64]string, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	m := make(map[int64]string, len(rooms))
	for _, r := range rooms {
		m[r.ID] = r.Name
	}
	return m, nil
}

func readingView(r store.ReadingRecord, roomName string, th Thresholds) types.ReadingView {
	return types.ReadingView{
		ID:           r.ID,
		DeviceID:     r.DeviceID,
		RoomID:       r.RoomID,
		RoomName:     roomName,
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		SensorModel:  r.Meta.SensorModel,
		I2CAddress:   r.Meta.I2CAddress,
		Transport:    r.Meta.Transport,
		Connectivity: r.Meta.Connectivity,
		MeasuredAt:   types.FormatTimestamp(r.MeasuredAt),
		Status:       Classify(r.Temperature, r.Humidity, th),
	}
}
