package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
)

// DirectoryStore reads rooms and students. Both tables are maintained by
// the administration side; this service never writes them.
type DirectoryStore struct {
	db *sql.DB
}

func NewDirectoryStore(db *sql.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

func (s *DirectoryStore) GetRoom(ctx context.Context, id int64) (store.RoomRecord, error) {
	var (
		rec    store.RoomRecord
		active int
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, location, is_active FROM rooms WHERE id = ?;
`, id).Scan(&rec.ID, &rec.Name, &rec.Location, &active)
	if err != nil {
		return store.RoomRecord{}, wrapRead("GetRoom", err)
	}
	rec.Active = active == 1
	return rec, nil
}

func (s *DirectoryStore) ListRooms(ctx context.Context) ([]store.RoomRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, location, is_active FROM rooms ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("ListRooms query: %w", err)
	}
	defer rows.Close()

	var out []store.RoomRecord
	for rows.Next() {
		var (
			rec    store.RoomRecord
			active int
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Location, &active); err != nil {
			return nil, fmt.Errorf("ListRooms scan: %w", err)
		}
		rec.Active = active == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *DirectoryStore) GetStudent(ctx context.Context, id int64) (store.StudentRecord, error) {
	var (
		rec    store.StudentRecord
		active int
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, full_name, is_active FROM students WHERE id = ?;
`, id).Scan(&rec.ID, &rec.Name, &active)
	if err != nil {
		return store.StudentRecord{}, wrapRead("GetStudent", err)
	}
	rec.Active = active == 1
	return rec, nil
}
