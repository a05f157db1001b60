package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

type DeviceRecord struct {
	ID         int64
	Name       string
	Type       types.DeviceType
	RoomID     *int64 // always nil for gateways
	Token      string
	Active     bool
	LastSeenAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type DeviceStore interface {
	// CreateDevice inserts rec and returns it with ID and timestamps set.
	// Returns ErrTokenConflict if rec.Token is taken.
	CreateDevice(ctx context.Context, rec DeviceRecord) (DeviceRecord, error)
	GetDevice(ctx context.Context, id int64) (DeviceRecord, error)
	GetDeviceByToken(ctx context.Context, token string) (DeviceRecord, error)
	ListDevices(ctx context.Context) ([]DeviceRecord, error)
	// UpdateDevice overwrites name, type, room, token and active flag.
	// Returns ErrNotFound or ErrTokenConflict.
	UpdateDevice(ctx context.Context, rec DeviceRecord) (DeviceRecord, error)
	// DeleteDevice returns ErrHasDependents if events or readings
	// reference the device.
	DeleteDevice(ctx context.Context, id int64) error
	MarkSeen(ctx context.Context, deviceID int64, t time.Time) error
}
