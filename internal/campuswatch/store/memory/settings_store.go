package memory

import (
	"context"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
)

func (s *Store) GetSettings(_ context.Context) (store.SettingsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return store.SettingsRecord{}, store.ErrNotFound
	}
	return *s.settings, nil
}

func (s *Store) CreateSettingsIfAbsent(_ context.Context, rec store.SettingsRecord) (store.SettingsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		now := s.now()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		s.settings = &rec
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, rec store.SettingsRecord) (store.SettingsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.settings == nil {
		rec.CreatedAt = now
	} else {
		rec.CreatedAt = s.settings.CreatedAt
	}
	rec.UpdatedAt = now
	s.settings = &rec
	return rec, nil
}

func (s *Store) SaveHardwareProfile(_ context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		return store.ErrNotFound
	}
	s.settings.HardwareProfile = raw
	s.settings.UpdatedAt = s.now()
	return nil
}

// SetRawHardwareProfile overwrites the stored profile without touching
// UpdatedAt, simulating a stale or hand-edited row. Test-only helper.
func (s *Store) SetRawHardwareProfile(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings != nil {
		s.settings.HardwareProfile = raw
	}
}
