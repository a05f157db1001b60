package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

type AccessMetadata struct {
	Transport    string
	Connectivity string
	ReaderModel  string
	Frequency    string
	CardID       string // empty when the reader did not report one
}

// AccessEventRecord captures a single access decision for the audit log.
type AccessEventRecord struct {
	ID         int64
	DeviceID   int64
	StudentID  int64
	Result     types.AccessResult
	Reason     types.AccessReason
	Meta       AccessMetadata
	OccurredAt time.Time // device-reported, or server time
	ReceivedAt time.Time
}

type EventFilter struct {
	DeviceID int64 // 0 = any
	Since    time.Time
	Limit    int // 0 = store default
}

// AccessEventStore persists access decisions as an append-only audit log.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) (int64, error)
	ListEvents(ctx context.Context, f EventFilter) ([]AccessEventRecord, error)
}
