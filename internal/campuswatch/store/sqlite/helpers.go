package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	dbpkg "github.com/BrandonDHaskell/campuswatch/internal/db"
)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableID(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return store.DefaultListLimit
	}
	return n
}

func wrapRead(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapWriteError translates constraint failures into store sentinels.
// A unique failure on devices can only be the token column; a foreign
// key failure on insert/update means a missing room, and on delete means
// dependent rows.
func mapWriteError(op string, err error) error {
	switch {
	case dbpkg.IsUniqueViolation(err):
		return store.ErrTokenConflict
	case dbpkg.IsForeignKeyViolation(err):
		if strings.HasPrefix(op, "Delete") {
			return store.ErrHasDependents
		}
		return store.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

var (
	_ store.DeviceStore      = (*DeviceStore)(nil)
	_ store.RoomStore        = (*DirectoryStore)(nil)
	_ store.StudentStore     = (*DirectoryStore)(nil)
	_ store.SettingsStore    = (*SettingsStore)(nil)
	_ store.AccessEventStore = (*AccessEventStore)(nil)
	_ store.TelemetryStore   = (*TelemetryStore)(nil)
)
