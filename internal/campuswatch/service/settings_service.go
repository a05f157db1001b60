package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// Settings is the normalized, process-wide monitoring configuration.
type Settings struct {
	Thresholds
	TelemetryIntervalSeconds int
	UnlockDurationSeconds    int
	AllowOnlyActiveStudents  bool
	HardwareProfile          types.HardwareProfile
	UpdatedAt                time.Time
}

func DefaultSettings() Settings {
	return Settings{
		Thresholds:               Thresholds{TempMin: 20, TempMax: 28, HumMin: 40, HumMax: 70},
		TelemetryIntervalSeconds: 60,
		UnlockDurationSeconds:    5,
		AllowOnlyActiveStudents:  true,
		HardwareProfile:          DefaultHardwareProfile(),
	}
}

// View converts to the admin wire form.
func (s Settings) View() types.SettingsView {
	return types.SettingsView{
		TempMin:                  s.TempMin,
		TempMax:                  s.TempMax,
		HumMin:                   s.HumMin,
		HumMax:                   s.HumMax,
		TelemetryIntervalSeconds: s.TelemetryIntervalSeconds,
		UnlockDurationSeconds:    s.UnlockDurationSeconds,
		AllowOnlyActiveStudents:  s.AllowOnlyActiveStudents,
		HardwareProfile:          s.HardwareProfile,
		UpdatedAt:                types.FormatTimestamp(s.UpdatedAt),
	}
}

// SettingsProvider is what evaluators depend on, so tests can inject
// fixed settings.
type SettingsProvider interface {
	Current(ctx context.Context) (Settings, error)
}

// StaticSettings always returns the wrapped value.
type StaticSettings Settings

func (s StaticSettings) Current(context.Context) (Settings, error) { return Settings(s), nil }

type SettingsService struct {
	store  store.SettingsStore
	logger *slog.Logger
}

func NewSettingsService(st store.SettingsStore, logger *slog.Logger) *SettingsService {
	return &SettingsService{store: st, logger: logger}
}

// Current returns the settings row, creating it with defaults on first
// access. A stored hardware profile that differs from its normalized form
// is written back; a failed write-back is logged and the normalized value
// is still returned.
func (s *SettingsService) Current(ctx context.Context) (Settings, error) {
	rec, err := s.store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = s.store.CreateSettingsIfAbsent(ctx, toRecord(DefaultSettings()))
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	profile := ParseHardwareProfile(rec.HardwareProfile)
	if canonical := EncodeHardwareProfile(profile); canonical != rec.HardwareProfile {
		if err := s.store.SaveHardwareProfile(ctx, canonical); err != nil {
			s.logger.Warn("hardware profile write-back failed", "err", err)
		} else {
			s.logger.Info("hardware profile normalized", "stored", rec.HardwareProfile)
		}
	}

	return fromRecord(rec, profile), nil
}

// Update applies a partial update. Threshold pairs are checked against
// the merged result so that moving one bound past the other is rejected.
func (s *SettingsService) Update(ctx context.Context, req types.SettingsUpdateRequest) (Settings, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return Settings{}, err
	}

	next := cur
	if req.TempMin != nil {
		next.TempMin = *req.TempMin
	}
	if req.TempMax != nil {
		next.TempMax = *req.TempMax
	}
	if req.HumMin != nil {
		next.HumMin = *req.HumMin
	}
	if req.HumMax != nil {
		next.HumMax = *req.HumMax
	}
	if req.TelemetryIntervalSeconds != nil {
		next.TelemetryIntervalSeconds = *req.TelemetryIntervalSeconds
	}
	if req.UnlockDurationSeconds != nil {
		next.UnlockDurationSeconds = *req.UnlockDurationSeconds
	}
	if req.AllowOnlyActiveStudents != nil {
		next.AllowOnlyActiveStudents = *req.AllowOnlyActiveStudents
	}
	if req.HardwareProfile != nil {
		next.HardwareProfile = NormalizeHardwareProfile(*req.HardwareProfile)
	}

	if err := validateSettings(next); err != nil {
		return Settings{}, err
	}

	rec, err := s.store.SaveSettings(ctx, toRecord(next))
	if err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.logger.Info("monitoring settings updated",
		"temp_min", next.TempMin, "temp_max", next.TempMax,
		"hum_min", next.HumMin, "hum_max", next.HumMax)
	return fromRecord(rec, next.HardwareProfile), nil
}

func validateSettings(s Settings) error {
	v := &ValidationError{}
	bounds := []struct {
		name string
		val  float64
	}{
		{"temp_min", s.TempMin}, {"temp_max", s.TempMax},
		{"hum_min", s.HumMin}, {"hum_max", s.HumMax},
	}
	for _, b := range bounds {
		if math.IsNaN(b.val) || math.IsInf(b.val, 0) {
			v.add(b.name, "must be a finite number")
		}
	}
	if !(s.TempMin < s.TempMax) {
		v.add("temp_min", "must be less than temp_max")
	}
	if !(s.HumMin < s.HumMax) {
		v.add("hum_min", "must be less than hum_max")
	}
	if s.TelemetryIntervalSeconds <= 0 {
		v.add("telemetry_interval_seconds", "must be positive")
	}
	if s.UnlockDurationSeconds <= 0 {
		v.add("unlock_duration_seconds", "must be positive")
	}
	return v.orNil()
}

func toRecord(s Settings) store.SettingsRecord {
	return store.SettingsRecord{
		TempMin:                  s.TempMin,
		TempMax:                  s.TempMax,
		HumMin:                   s.HumMin,
		HumMax:                   s.HumMax,
		TelemetryIntervalSeconds: s.TelemetryIntervalSeconds,
		UnlockDurationSeconds:    s.UnlockDurationSeconds,
		AllowOnlyActiveStudents:  s.AllowOnlyActiveStudents,
		HardwareProfile:          EncodeHardwareProfile(s.HardwareProfile),
	}
}

func fromRecord(rec store.SettingsRecord, profile types.HardwareProfile) Settings {
	return Settings{
		Thresholds: Thresholds{
			TempMin: rec.TempMin,
			TempMax: rec.TempMax,
			HumMin:  rec.HumMin,
			HumMax:  rec.HumMax,
		},
		TelemetryIntervalSeconds: rec.TelemetryIntervalSeconds,
		UnlockDurationSeconds:    rec.UnlockDurationSeconds,
		AllowOnlyActiveStudents:  rec.AllowOnlyActiveStudents,
		HardwareProfile:          profile,
		UpdatedAt:                rec.UpdatedAt,
	}
}
