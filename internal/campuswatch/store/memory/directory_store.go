package memory

import (
	"context"
	"sort"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
)

// PutRoom inserts or replaces a room. Test and seed helper.
func (s *Store) PutRoom(rec store.RoomRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[rec.ID] = rec
}

// PutStudent inserts or replaces a student. Test and seed helper.
func (s *Store) PutStudent(rec store.StudentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[rec.ID] = rec
}

func (s *Store) GetRoom(_ context.Context, id int64) (store.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return store.RoomRecord{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListRooms(_ context.Context) ([]store.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.RoomRecord, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetStudent(_ context.Context, id int64) (store.StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return store.StudentRecord{}, store.ErrNotFound
	}
	return st, nil
}
