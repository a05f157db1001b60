package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	sqlitestore "github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store/sqlite"
)

func TestTelemetryStore_InsertAndList(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ts := sqlitestore.NewTelemetryStore(conn, w)
	ctx := context.Background()
	seedRoom(t, conn, 3, "Room 3")

	d := newSensor(t, ds, "dev-s1")
	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := ts.InsertReading(ctx, store.ReadingRecord{
			DeviceID:    d.ID,
			RoomID:      3,
			Temperature: 21.5 + float64(i),
			Humidity:    50,
			Meta:        store.TelemetryMetadata{SensorModel: "SHT31", I2CAddress: "0x44"},
			MeasuredAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertReading %d: %v", i, err)
		}
	}

	got, err := ts.ListReadings(ctx, store.ReadingFilter{RoomID: 3})
	if err != nil {
		t.Fatalf("ListReadings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(got))
	}
	if got[0].Temperature != 23.5 {
		t.Errorf("expected newest first (23.5), got %v", got[0].Temperature)
	}
	if got[0].Meta.SensorModel != "SHT31" || got[0].Meta.I2CAddress != "0x44" {
		t.Errorf("unexpected metadata: %+v", got[0].Meta)
	}

	since, err := ts.ListReadings(ctx, store.ReadingFilter{Since: base.Add(90 * time.Second)})
	if err != nil {
		t.Fatalf("ListReadings since: %v", err)
	}
	if len(since) != 1 {
		t.Errorf("expected 1 reading after cutoff, got %d", len(since))
	}
}

func TestTelemetryStore_InsertUnknownRoom_NotFound(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	d := newSensor(t, sqlitestore.NewDeviceStore(conn, w), "dev-s1")
	ts := sqlitestore.NewTelemetryStore(conn, w)

	_, err := ts.InsertReading(context.Background(), store.ReadingRecord{
		DeviceID: d.ID, RoomID: 12, Temperature: 20, Humidity: 50,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTelemetryStore_LatestPerRoom(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ts := sqlitestore.NewTelemetryStore(conn, w)
	ctx := context.Background()
	seedRoom(t, conn, 1, "A")
	seedRoom(t, conn, 2, "B")

	d1 := newSensor(t, ds, "dev-1")
	d2 := newSensor(t, ds, "dev-2")
	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	insert := func(dev, room int64, temp float64, at time.Time) {
		t.Helper()
		if _, err := ts.InsertReading(ctx, store.ReadingRecord{
			DeviceID: dev, RoomID: room, Temperature: temp, Humidity: 50, MeasuredAt: at,
		}); err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}
	insert(d1.ID, 1, 20, base)
	insert(d1.ID, 1, 22, base.Add(time.Minute))
	insert(d2.ID, 2, 30, base.Add(2*time.Minute))
	insert(d2.ID, 2, 25, base)

	latest, err := ts.LatestPerRoom(ctx)
	if err != nil {
		t.Fatalf("LatestPerRoom: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(latest))
	}
	if latest[0].RoomID != 1 || latest[0].Temperature != 22 {
		t.Errorf("room 1: expected 22, got %+v", latest[0])
	}
	if latest[1].RoomID != 2 || latest[1].Temperature != 30 {
		t.Errorf("room 2: expected 30, got %+v", latest[1])
	}
}

// ── BindAndInsert ────────────────────────────────────────────────────────────

func TestTelemetryStore_BindAndInsert_FirstBindWins(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ts := sqlitestore.NewTelemetryStore(conn, w)
	ctx := context.Background()
	seedRoom(t, conn, 3, "Room 3")
	seedRoom(t, conn, 5, "Room 5")

	d := newSensor(t, ds, "dev-bind")

	room, id, err := ts.BindAndInsert(ctx, store.ReadingRecord{DeviceID: d.ID, RoomID: 3, Temperature: 22, Humidity: 50})
	if err != nil {
		t.Fatalf("first BindAndInsert: %v", err)
	}
	if room != 3 || id == 0 {
		t.Fatalf("expected bound=3 with a reading, got room=%d id=%d", room, id)
	}

	room, id, err = ts.BindAndInsert(ctx, store.ReadingRecord{DeviceID: d.ID, RoomID: 5, Temperature: 22, Humidity: 50})
	if err != nil {
		t.Fatalf("second BindAndInsert: %v", err)
	}
	if room != 3 || id != 0 {
		t.Errorf("expected binding to stay at 3 with no reading, got room=%d id=%d", room, id)
	}

	got, err := ts.ListReadings(ctx, store.ReadingFilter{})
	if err != nil {
		t.Fatalf("ListReadings: %v", err)
	}
	if len(got) != 1 || got[0].RoomID != 3 {
		t.Fatalf("expected one reading in room 3, got %+v", got)
	}
}

func TestTelemetryStore_BindAndInsert_MissingRoom(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ts := sqlitestore.NewTelemetryStore(conn, w)

	d := newSensor(t, ds, "dev-bind")
	_, _, err := ts.BindAndInsert(context.Background(), store.ReadingRecord{DeviceID: d.ID, RoomID: 77})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTelemetryStore_BindAndInsert_FailedInsertRollsBackBind(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDeviceStore(conn, w)
	ts := sqlitestore.NewTelemetryStore(conn, w)
	ctx := context.Background()
	seedRoom(t, conn, 3, "Room 3")

	d := newSensor(t, ds, "dev-bind")
	if _, err := conn.ExecContext(ctx, `DROP TABLE telemetry_readings;`); err != nil {
		t.Fatalf("drop readings: %v", err)
	}

	if _, _, err := ts.BindAndInsert(ctx, store.ReadingRecord{DeviceID: d.ID, RoomID: 3, Temperature: 22, Humidity: 50}); err == nil {
		t.Fatal("expected insert failure")
	}

	got, err := ds.GetDevice(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.RoomID != nil {
		t.Fatalf("bind must roll back with the failed insert, got room %d", *got.RoomID)
	}
}
