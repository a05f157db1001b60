package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	dbpkg "github.com/BrandonDHaskell/campuswatch/internal/db"
)

type SettingsStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewSettingsStore(db *sql.DB, writer *dbpkg.Worker) *SettingsStore {
	return &SettingsStore{db: db, writer: writer}
}

func (s *SettingsStore) GetSettings(ctx context.Context) (store.SettingsRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT temp_min, temp_max, hum_min, hum_max,
       telemetry_interval_seconds, unlock_duration_seconds,
       allow_only_active_students, hardware_profile,
       created_at_ms, updated_at_ms
FROM monitoring_settings WHERE id = 1;
`)
	var (
		rec       store.SettingsRecord
		allowOnly int
		createdMs int64
		updatedMs int64
	)
	err := row.Scan(&rec.TempMin, &rec.TempMax, &rec.HumMin, &rec.HumMax,
		&rec.TelemetryIntervalSeconds, &rec.UnlockDurationSeconds,
		&allowOnly, &rec.HardwareProfile, &createdMs, &updatedMs)
	if err != nil {
		return store.SettingsRecord{}, wrapRead("GetSettings", err)
	}
	rec.AllowOnlyActiveStudents = allowOnly == 1
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return rec, nil
}

// CreateSettingsIfAbsent uses INSERT OR IGNORE against the id=1 primary
// key, so concurrent first reads converge on one row.
func (s *SettingsStore) CreateSettingsIfAbsent(ctx context.Context, rec store.SettingsRecord) (store.SettingsRecord, error) {
	nowMs := time.Now().UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO monitoring_settings(
  id, temp_min, temp_max, hum_min, hum_max,
  telemetry_interval_seconds, unlock_duration_seconds,
  allow_only_active_students, hardware_profile,
  created_at_ms, updated_at_ms
) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, rec.TempMin, rec.TempMax, rec.HumMin, rec.HumMax,
			rec.TelemetryIntervalSeconds, rec.UnlockDurationSeconds,
			boolInt(rec.AllowOnlyActiveStudents), rec.HardwareProfile,
			nowMs, nowMs)
		if err != nil {
			return mapWriteError("CreateSettingsIfAbsent", err)
		}
		return nil
	})
	if err != nil {
		return store.SettingsRecord{}, err
	}
	return s.GetSettings(ctx)
}

func (s *SettingsStore) SaveSettings(ctx context.Context, rec store.SettingsRecord) (store.SettingsRecord, error) {
	nowMs := time.Now().UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO monitoring_settings(
  id, temp_min, temp_max, hum_min, hum_max,
  telemetry_interval_seconds, unlock_duration_seconds,
  allow_only_active_students, hardware_profile,
  created_at_ms, updated_at_ms
) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  temp_min = excluded.temp_min,
  temp_max = excluded.temp_max,
  hum_min = excluded.hum_min,
  hum_max = excluded.hum_max,
  telemetry_interval_seconds = excluded.telemetry_interval_seconds,
  unlock_duration_seconds = excluded.unlock_duration_seconds,
  allow_only_active_students = excluded.allow_only_active_students,
  hardware_profile = excluded.hardware_profile,
  updated_at_ms = excluded.updated_at_ms;
`, rec.TempMin, rec.TempMax, rec.HumMin, rec.HumMax,
			rec.TelemetryIntervalSeconds, rec.UnlockDurationSeconds,
			boolInt(rec.AllowOnlyActiveStudents), rec.HardwareProfile,
			nowMs, nowMs)
		if err != nil {
			return mapWriteError("SaveSettings", err)
		}
		return nil
	})
	if err != nil {
		return store.SettingsRecord{}, err
	}
	return s.GetSettings(ctx)
}

func (s *SettingsStore) SaveHardwareProfile(ctx context.Context, raw string) error {
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE monitoring_settings SET hardware_profile = ?, updated_at_ms = ? WHERE id = 1;
`, raw, nowMs)
		if err != nil {
			return mapWriteError("SaveHardwareProfile", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
