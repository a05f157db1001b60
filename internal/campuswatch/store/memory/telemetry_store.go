package memory

import (
	"context"
	"sort"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
)

func (s *Store) InsertReading(_ context.Context, rec store.ReadingRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReadingRefs(rec); err != nil {
		return 0, err
	}
	return s.appendReading(rec), nil
}

func (s *Store) BindAndInsert(_ context.Context, rec store.ReadingRecord) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReadingRefs(rec); err != nil {
		return 0, 0, err
	}
	d := s.devices[rec.DeviceID]
	if d.RoomID != nil {
		if *d.RoomID != rec.RoomID {
			return *d.RoomID, 0, nil
		}
		return rec.RoomID, s.appendReading(rec), nil
	}

	roomID := rec.RoomID
	d.RoomID = &roomID
	d.UpdatedAt = s.now()
	s.devices[rec.DeviceID] = d
	return roomID, s.appendReading(rec), nil
}

// caller holds s.mu
func (s *Store) checkReadingRefs(rec store.ReadingRecord) error {
	if _, ok := s.devices[rec.DeviceID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.rooms[rec.RoomID]; !ok {
		return store.ErrNotFound
	}
	return nil
}

// caller holds s.mu
func (s *Store) appendReading(rec store.ReadingRecord) int64 {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = s.now()
	}
	if rec.MeasuredAt.IsZero() {
		rec.MeasuredAt = rec.ReceivedAt
	}
	s.nextReadingID++
	rec.ID = s.nextReadingID
	s.readings = append(s.readings, rec)
	return rec.ID
}

func (s *Store) ListReadings(_ context.Context, f store.ReadingFilter) ([]store.ReadingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []store.ReadingRecord
	for _, rd := range s.readings {
		if f.RoomID != 0 && rd.RoomID != f.RoomID {
			continue
		}
		if !f.Since.IsZero() && rd.MeasuredAt.Before(f.Since) {
			continue
		}
		matched = append(matched, rd)
	}
	return newestFirst(matched, measuredAt, limitOrDefault(f.Limit)), nil
}

func (s *Store) LatestPerRoom(_ context.Context) ([]store.ReadingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[int64]store.ReadingRecord)
	for _, rd := range s.readings {
		cur, ok := latest[rd.RoomID]
		if !ok || rd.MeasuredAt.After(cur.MeasuredAt) || (rd.MeasuredAt.Equal(cur.MeasuredAt) && rd.ID > cur.ID) {
			latest[rd.RoomID] = rd
		}
	}
	out := make([]store.ReadingRecord, 0, len(latest))
	for _, rd := range latest {
		out = append(out, rd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

// Readings returns a copy of all stored readings in insertion order.
// Test-only helper.
func (s *Store) Readings() []store.ReadingRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.ReadingRecord, len(s.readings))
	copy(out, s.readings)
	return out
}

func measuredAt(r store.ReadingRecord) time.Time { return r.MeasuredAt }
