package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	dbpkg "github.com/BrandonDHaskell/campuswatch/internal/db"
)

type TelemetryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTelemetryStore(db *sql.DB, writer *dbpkg.Worker) *TelemetryStore {
	return &TelemetryStore{db: db, writer: writer}
}

const readingColumns = `id, device_id, room_id, temperature, humidity,
       transport, connectivity, sensor_model, i2c_address,
       measured_at_ms, received_at_ms`

func (s *TelemetryStore) InsertReading(ctx context.Context, rec store.ReadingRecord) (int64, error) {
	rec = withReadingTimes(rec)

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		id, err = insertReading(ctx, tx, rec)
		return err
	})
	return id, err
}

// BindAndInsert runs the room_id IS NULL compare-and-swap and the insert
// in one writer transaction, so a failed insert leaves the device unbound.
func (s *TelemetryStore) BindAndInsert(ctx context.Context, rec store.ReadingRecord) (int64, int64, error) {
	rec = withReadingTimes(rec)

	var bound, id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE devices
SET room_id = ?, updated_at_ms = ?
WHERE id = ? AND room_id IS NULL;
`, rec.RoomID, rec.ReceivedAt.UTC().UnixMilli(), rec.DeviceID); err != nil {
			return mapWriteError("BindAndInsert bind", err)
		}

		var cur sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT room_id FROM devices WHERE id = ?;`, rec.DeviceID).Scan(&cur)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("BindAndInsert read back: %w", err)
		}
		if !cur.Valid {
			return fmt.Errorf("BindAndInsert: device %d still unbound", rec.DeviceID)
		}
		bound = cur.Int64
		if bound != rec.RoomID {
			return nil
		}

		id, err = insertReading(ctx, tx, rec)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return bound, id, nil
}

func withReadingTimes(rec store.ReadingRecord) store.ReadingRecord {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	if rec.MeasuredAt.IsZero() {
		rec.MeasuredAt = rec.ReceivedAt
	}
	return rec
}

func insertReading(ctx context.Context, tx *sql.Tx, rec store.ReadingRecord) (int64, error) {
	res, err := tx.ExecContext(ctx, `
INSERT INTO telemetry_readings(
  device_id, room_id, temperature, humidity,
  transport, connectivity, sensor_model, i2c_address,
  measured_at_ms, received_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		rec.DeviceID, rec.RoomID, rec.Temperature, rec.Humidity,
		rec.Meta.Transport, rec.Meta.Connectivity, rec.Meta.SensorModel, rec.Meta.I2CAddress,
		rec.MeasuredAt.UTC().UnixMilli(), rec.ReceivedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, mapWriteError("InsertReading insert", err)
	}
	return res.LastInsertId()
}

func (s *TelemetryStore) ListReadings(ctx context.Context, f store.ReadingFilter) ([]store.ReadingRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.RoomID != 0 {
		where = append(where, "room_id = ?")
		args = append(args, f.RoomID)
	}
	if !f.Since.IsZero() {
		where = append(where, "measured_at_ms >= ?")
		args = append(args, f.Since.UTC().UnixMilli())
	}

	q := `SELECT ` + readingColumns + ` FROM telemetry_readings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY measured_at_ms DESC, id DESC LIMIT ?;"
	args = append(args, limitOrDefault(f.Limit))

	return s.query(ctx, "ListReadings", q, args...)
}

// LatestPerRoom picks the newest reading per room; ties on measured_at
// go to the higher id.
func (s *TelemetryStore) LatestPerRoom(ctx context.Context) ([]store.ReadingRecord, error) {
	q := `
SELECT ` + readingColumns + `
FROM telemetry_readings r
WHERE r.id = (
  SELECT r2.id FROM telemetry_readings r2
  WHERE r2.room_id = r.room_id
  ORDER BY r2.measured_at_ms DESC, r2.id DESC
  LIMIT 1
)
ORDER BY r.room_id;`
	return s.query(ctx, "LatestPerRoom", q)
}

func (s *TelemetryStore) query(ctx context.Context, op, q string, args ...any) ([]store.ReadingRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	var out []store.ReadingRecord
	for rows.Next() {
		var (
			rec        store.ReadingRecord
			measuredMs int64
			receivedMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.RoomID, &rec.Temperature, &rec.Humidity,
			&rec.Meta.Transport, &rec.Meta.Connectivity, &rec.Meta.SensorModel, &rec.Meta.I2CAddress,
			&measuredMs, &receivedMs); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		rec.MeasuredAt = time.UnixMilli(measuredMs).UTC()
		rec.ReceivedAt = time.UnixMilli(receivedMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
