package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Fixed dev tokens so bench firmware can be flashed once.
const (
	DevGatewayToken = "dev-000000000000000000000000000000000000000000000001"
	DevSensorToken  = "dev-000000000000000000000000000000000000000000000002"
)

// SeedDev inserts starter rooms, students and devices. Idempotent.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO rooms(id, name, location, is_active, created_at_ms, updated_at_ms)
VALUES (1, 'Lab A', 'Building 1, Floor 2', 1, ?, ?),
       (2, 'Library', 'Building 2, Floor 1', 1, ?, ?);`, now, now, now, now); err != nil {
		return fmt.Errorf("seed rooms: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO students(id, full_name, is_active, created_at_ms, updated_at_ms)
VALUES (1, 'Ada Mensah', 1, ?, ?),
       (2, 'Luis Ortega', 1, ?, ?),
       (7, 'Kim Tran', 0, ?, ?);`, now, now, now, now, now, now); err != nil {
		return fmt.Errorf("seed students: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO devices(name, device_type, room_id, token, is_active, created_at_ms, updated_at_ms)
VALUES ('Main Entrance', 'GATEWAY', NULL, ?, 1, ?, ?)
ON CONFLICT(token) DO UPDATE SET
  is_active = 1,
  updated_at_ms = excluded.updated_at_ms;`, DevGatewayToken, now, now); err != nil {
		return fmt.Errorf("seed gateway: %w", err)
	}

	// The sensor stays unbound; its first reading binds it.
	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO devices(name, device_type, room_id, token, is_active, created_at_ms, updated_at_ms)
VALUES ('Lab A Climate', 'ROOM_SENSOR', NULL, ?, 1, ?, ?);`, DevSensorToken, now, now); err != nil {
		return fmt.Errorf("seed sensor: %w", err)
	}

	return nil
}
