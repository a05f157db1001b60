package store

import "context"

type RoomRecord struct {
	ID       int64
	Name     string
	Location string
	Active   bool
}

type StudentRecord struct {
	ID     int64
	Name   string
	Active bool
}

// RoomStore and StudentStore are read-only views of records owned by the
// school administration side of the system.
type RoomStore interface {
	GetRoom(ctx context.Context, id int64) (RoomRecord, error)
	ListRooms(ctx context.Context) ([]RoomRecord, error)
}

type StudentStore interface {
	GetStudent(ctx context.Context, id int64) (StudentRecord, error)
}
