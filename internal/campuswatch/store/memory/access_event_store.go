package memory

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
)

func (s *Store) RecordEvent(_ context.Context, rec store.AccessEventRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[rec.DeviceID]; !ok {
		return 0, store.ErrNotFound
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = s.now()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = rec.ReceivedAt
	}
	s.nextEventID++
	rec.ID = s.nextEventID
	s.events = append(s.events, rec)
	return rec.ID, nil
}

func (s *Store) ListEvents(_ context.Context, f store.EventFilter) ([]store.AccessEventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []store.AccessEventRecord
	for _, ev := range s.events {
		if f.DeviceID != 0 && ev.DeviceID != f.DeviceID {
			continue
		}
		if !f.Since.IsZero() && ev.OccurredAt.Before(f.Since) {
			continue
		}
		matched = append(matched, ev)
	}
	return newestFirst(matched, func(e store.AccessEventRecord) time.Time { return e.OccurredAt }, limitOrDefault(f.Limit)), nil
}

// Events returns a copy of all recorded events in insertion order.
// Test-only helper.
func (s *Store) Events() []store.AccessEventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.AccessEventRecord, len(s.events))
	copy(out, s.events)
	return out
}
