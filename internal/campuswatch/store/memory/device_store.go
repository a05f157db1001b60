package memory

import (
	"context"
	"sort"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
)

func (s *Store) CreateDevice(_ context.Context, rec store.DeviceRecord) (store.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.tokens[rec.Token]; taken {
		return store.DeviceRecord{}, store.ErrTokenConflict
	}
	if rec.RoomID != nil {
		if _, ok := s.rooms[*rec.RoomID]; !ok {
			return store.DeviceRecord{}, store.ErrNotFound
		}
	}

	s.nextDeviceID++
	now := s.now()
	rec.ID = s.nextDeviceID
	rec.RoomID = cloneID(rec.RoomID)
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.devices[rec.ID] = rec
	s.tokens[rec.Token] = rec.ID
	return rec, nil
}

func (s *Store) GetDevice(_ context.Context, id int64) (store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return store.DeviceRecord{}, store.ErrNotFound
	}
	return copyDevice(d), nil
}

func (s *Store) GetDeviceByToken(_ context.Context, token string) (store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return store.DeviceRecord{}, store.ErrNotFound
	}
	return copyDevice(s.devices[id]), nil
}

func (s *Store) ListDevices(_ context.Context) ([]store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.DeviceRecord, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, copyDevice(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateDevice(_ context.Context, rec store.DeviceRecord) (store.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.devices[rec.ID]
	if !ok {
		return store.DeviceRecord{}, store.ErrNotFound
	}
	if owner, taken := s.tokens[rec.Token]; taken && owner != rec.ID {
		return store.DeviceRecord{}, store.ErrTokenConflict
	}
	if rec.RoomID != nil {
		if _, ok := s.rooms[*rec.RoomID]; !ok {
			return store.DeviceRecord{}, store.ErrNotFound
		}
	}

	delete(s.tokens, cur.Token)
	cur.Name = rec.Name
	cur.Type = rec.Type
	cur.RoomID = cloneID(rec.RoomID)
	cur.Token = rec.Token
	cur.Active = rec.Active
	cur.UpdatedAt = s.now()
	s.devices[cur.ID] = cur
	s.tokens[cur.Token] = cur.ID
	return copyDevice(cur), nil
}

func (s *Store) DeleteDevice(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, ev := range s.events {
		if ev.DeviceID == id {
			return store.ErrHasDependents
		}
	}
	for _, rd := range s.readings {
		if rd.DeviceID == id {
			return store.ErrHasDependents
		}
	}
	delete(s.tokens, d.Token)
	delete(s.devices, id)
	return nil
}

func (s *Store) MarkSeen(_ context.Context, deviceID int64, t time.Time) error {
	if t.IsZero() {
		t = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[deviceID]
	if !ok {
		return store.ErrNotFound
	}
	t = t.UTC()
	d.LastSeenAt = &t
	s.devices[deviceID] = d
	return nil
}

func copyDevice(d store.DeviceRecord) store.DeviceRecord {
	d.RoomID = cloneID(d.RoomID)
	if d.LastSeenAt != nil {
		t := *d.LastSeenAt
		d.LastSeenAt = &t
	}
	return d
}

func cloneID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
