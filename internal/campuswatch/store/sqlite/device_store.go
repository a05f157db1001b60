package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
	dbpkg "github.com/BrandonDHaskell/campuswatch/internal/db"
)

type DeviceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDeviceStore(db *sql.DB, writer *dbpkg.Worker) *DeviceStore {
	return &DeviceStore{db: db, writer: writer}
}

const deviceColumns = `id, name, device_type, room_id, token, is_active, last_seen_at_ms, created_at_ms, updated_at_ms`

func (s *DeviceStore) CreateDevice(ctx context.Context, rec store.DeviceRecord) (store.DeviceRecord, error) {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO devices(name, device_type, room_id, token, is_active, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?);
`, rec.Name, string(rec.Type), nullableID(rec.RoomID), rec.Token, boolInt(rec.Active), nowMs, nowMs)
		if err != nil {
			return mapWriteError("CreateDevice insert", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return store.DeviceRecord{}, err
	}

	rec.ID = id
	rec.CreatedAt = time.UnixMilli(nowMs).UTC()
	rec.UpdatedAt = rec.CreatedAt
	return rec, nil
}

func (s *DeviceStore) GetDevice(ctx context.Context, id int64) (store.DeviceRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?;`, id)
	rec, err := scanDevice(row)
	if err != nil {
		return store.DeviceRecord{}, wrapRead("GetDevice", err)
	}
	return rec, nil
}

func (s *DeviceStore) GetDeviceByToken(ctx context.Context, token string) (store.DeviceRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return store.DeviceRecord{}, store.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE token = ?;`, token)
	rec, err := scanDevice(row)
	if err != nil {
		return store.DeviceRecord{}, wrapRead("GetDeviceByToken", err)
	}
	return rec, nil
}

func (s *DeviceStore) ListDevices(ctx context.Context) ([]store.DeviceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("ListDevices query: %w", err)
	}
	defer rows.Close()

	var out []store.DeviceRecord
	for rows.Next() {
		rec, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("ListDevices scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *DeviceStore) UpdateDevice(ctx context.Context, rec store.DeviceRecord) (store.DeviceRecord, error) {
	nowMs := time.Now().UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE devices
SET name = ?,
    device_type = ?,
    room_id = ?,
    token = ?,
    is_active = ?,
    updated_at_ms = ?
WHERE id = ?;
`, rec.Name, string(rec.Type), nullableID(rec.RoomID), rec.Token, boolInt(rec.Active), nowMs, rec.ID)
		if err != nil {
			return mapWriteError("UpdateDevice", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return store.DeviceRecord{}, err
	}
	return s.GetDevice(ctx, rec.ID)
}

// DeleteDevice relies on the foreign keys from access_events and
// telemetry_readings to refuse deletes that would orphan audit rows.
func (s *DeviceStore) DeleteDevice(ctx context.Context, id int64) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = ?;`, id)
		if err != nil {
			return mapWriteError("DeleteDevice", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *DeviceStore) MarkSeen(ctx context.Context, deviceID int64, t time.Time) error {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE devices SET last_seen_at_ms = ? WHERE id = ?;
`, ms, deviceID); err != nil {
			return fmt.Errorf("MarkSeen: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(r rowScanner) (store.DeviceRecord, error) {
	var (
		rec       store.DeviceRecord
		typ       string
		roomID    sql.NullInt64
		active    int
		lastSeen  sql.NullInt64
		createdMs int64
		updatedMs int64
	)
	if err := r.Scan(&rec.ID, &rec.Name, &typ, &roomID, &rec.Token, &active, &lastSeen, &createdMs, &updatedMs); err != nil {
		return store.DeviceRecord{}, err
	}
	rec.Type = types.DeviceType(typ)
	if roomID.Valid {
		v := roomID.Int64
		rec.RoomID = &v
	}
	rec.Active = active == 1
	if lastSeen.Valid {
		t := time.UnixMilli(lastSeen.Int64).UTC()
		rec.LastSeenAt = &t
	}
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return rec, nil
}
