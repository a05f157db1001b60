package store

import (
	"context"
	"time"
)

type TelemetryMetadata struct {
	Transport    string
	Connectivity string
	SensorModel  string
	I2CAddress   string
}

type ReadingRecord struct {
	ID          int64
	DeviceID    int64
	RoomID      int64
	Temperature float64
	Humidity    float64
	Meta        TelemetryMetadata
	MeasuredAt  time.Time
	ReceivedAt  time.Time
}

type ReadingFilter struct {
	RoomID int64 // 0 = any
	Since  time.Time
	Limit  int // 0 = store default
}

// DefaultListLimit caps list queries that do not set a limit.
const DefaultListLimit = 200

// TelemetryStore persists readings as an append-only log.
type TelemetryStore interface {
	InsertReading(ctx context.Context, rec ReadingRecord) (int64, error)
	// BindAndInsert binds an unbound device to rec.RoomID and inserts rec
	// in one transaction. It returns the room the device is bound to
	// afterwards; when that is not rec.RoomID nothing is written and the
	// reading id is 0. The first committed bind wins.
	BindAndInsert(ctx context.Context, rec ReadingRecord) (roomID, readingID int64, err error)
	ListReadings(ctx context.Context, f ReadingFilter) ([]ReadingRecord, error)
	// LatestPerRoom returns the newest reading of every room that has one.
	LatestPerRoom(ctx context.Context) ([]ReadingRecord, error)
}
