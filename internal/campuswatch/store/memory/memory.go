// Package memory implements the store interfaces in process memory. It is
// intended for tests and dev runs without a database file.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
)

// Store implements every store interface behind one mutex so that device
// deletes can see dependent events and readings, as a relational store
// with foreign keys would.
type Store struct {
	mu sync.RWMutex

	devices  map[int64]store.DeviceRecord
	tokens   map[string]int64
	rooms    map[int64]store.RoomRecord
	students map[int64]store.StudentRecord
	settings *store.SettingsRecord
	events   []store.AccessEventRecord
	readings []store.ReadingRecord

	nextDeviceID  int64
	nextEventID   int64
	nextReadingID int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		devices:  make(map[int64]store.DeviceRecord),
		tokens:   make(map[string]int64),
		rooms:    make(map[int64]store.RoomRecord),
		students: make(map[int64]store.StudentRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return store.DefaultListLimit
	}
	return n
}

func newestFirst[T any](in []T, at func(T) time.Time, limit int) []T {
	out := make([]T, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return at(out[i]).After(at(out[j])) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var (
	_ store.DeviceStore      = (*Store)(nil)
	_ store.RoomStore        = (*Store)(nil)
	_ store.StudentStore     = (*Store)(nil)
	_ store.SettingsStore    = (*Store)(nil)
	_ store.AccessEventStore = (*Store)(nil)
	_ store.TelemetryStore   = (*Store)(nil)
)
