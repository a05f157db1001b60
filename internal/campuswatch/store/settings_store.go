package store

import (
	"context"
	"time"
)

// SettingsRecord is the single monitoring_settings row. HardwareProfile
// holds the raw stored JSON, which may be stale or malformed.
type SettingsRecord struct {
	TempMin                  float64
	TempMax                  float64
	HumMin                   float64
	HumMax                   float64
	TelemetryIntervalSeconds int
	UnlockDurationSeconds    int
	AllowOnlyActiveStudents  bool
	HardwareProfile          string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type SettingsStore interface {
	// GetSettings returns ErrNotFound if the row has not been created.
	GetSettings(ctx context.Context) (SettingsRecord, error)
	// CreateSettingsIfAbsent inserts rec unless a row already exists and
	// returns whichever row is stored afterwards.
	CreateSettingsIfAbsent(ctx context.Context, rec SettingsRecord) (SettingsRecord, error)
	SaveSettings(ctx context.Context, rec SettingsRecord) (SettingsRecord, error)
	// SaveHardwareProfile rewrites only the profile column.
	SaveHardwareProfile(ctx context.Context, raw string) error
}
