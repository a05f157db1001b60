package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// ResolveStatus is the outcome of a bearer-token lookup. Callers map
// NotFound to 401 and Inactive to 403; an inactive device is never
// treated as absent.
type ResolveStatus int

const (
	TokenNotFound ResolveStatus = iota
	TokenInactive
	TokenOK
)

func (s ResolveStatus) String() string {
	switch s {
	case TokenOK:
		return "OK"
	case TokenInactive:
		return "INACTIVE"
	default:
		return "NOT_FOUND"
	}
}

type Resolution struct {
	Status ResolveStatus
	Device store.DeviceRecord // zero when Status == TokenNotFound
}

type DeviceInput struct {
	Name   string
	Type   types.DeviceType
	RoomID *int64 // ignored for gateways
	Active *bool  // defaults to true
}

type DevicePatch struct {
	Name            *string
	Type            *types.DeviceType
	RoomID          *int64
	ClearRoom       bool
	Active          *bool
	RegenerateToken bool
}

type DeviceRegistry struct {
	devices  store.DeviceStore
	rooms    store.RoomStore
	newToken TokenGenerator
	logger   *slog.Logger
}

type RegistryOption func(*DeviceRegistry)

// WithTokenGenerator replaces NewDeviceToken.
func WithTokenGenerator(g TokenGenerator) RegistryOption {
	return func(r *DeviceRegistry) { r.newToken = g }
}

func NewDeviceRegistry(devices store.DeviceStore, rooms store.RoomStore, logger *slog.Logger, opts ...RegistryOption) *DeviceRegistry {
	r := &DeviceRegistry{
		devices:  devices,
		rooms:    rooms,
		newToken: NewDeviceToken,
		logger:   logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ResolveByToken looks up the device presenting token.
func (r *DeviceRegistry) ResolveByToken(ctx context.Context, token string) (Resolution, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Resolution{Status: TokenNotFound}, nil
	}

	d, err := r.devices.GetDeviceByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return Resolution{Status: TokenNotFound}, nil
	}
	if err != nil {
		return Resolution{}, err
	}
	if !d.Active {
		return Resolution{Status: TokenInactive, Device: d}, nil
	}
	return Resolution{Status: TokenOK, Device: d}, nil
}

// NoteSeen records that the device authenticated just now. Best effort.
func (r *DeviceRegistry) NoteSeen(ctx context.Context, deviceID int64) {
	if err := r.devices.MarkSeen(ctx, deviceID, time.Now().UTC()); err != nil {
		r.logger.Warn("mark device seen failed", "device_id", deviceID, "err", err)
	}
}

func (r *DeviceRegistry) Get(ctx context.Context, id int64) (store.DeviceRecord, error) {
	d, err := r.devices.GetDevice(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.DeviceRecord{}, ErrDeviceNotFound
	}
	return d, err
}

func (r *DeviceRegistry) List(ctx context.Context) ([]store.DeviceRecord, error) {
	return r.devices.ListDevices(ctx)
}

// CreateDevice registers a device with a fresh token. Gateways never carry
// a room; a sensor's room is optional and otherwise bound by its first
// accepted reading.
func (r *DeviceRegistry) CreateDevice(ctx context.Context, in DeviceInput) (store.DeviceRecord, error) {
	v := &ValidationError{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		v.add("name", "is required")
	}
	if !in.Type.Valid() {
		v.add("type", "must be GATEWAY or ROOM_SENSOR")
	}
	if err := v.orNil(); err != nil {
		return store.DeviceRecord{}, err
	}

	roomID := in.RoomID
	if in.Type == types.DeviceGateway {
		roomID = nil
	}
	if err := r.checkRoom(ctx, roomID); err != nil {
		return store.DeviceRecord{}, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	rec := store.DeviceRecord{Name: name, Type: in.Type, RoomID: roomID, Active: active}
	created, err := r.withFreshToken(ctx, func(token string) (store.DeviceRecord, error) {
		rec.Token = token
		return r.devices.CreateDevice(ctx, rec)
	})
	if err != nil {
		return store.DeviceRecord{}, err
	}

	r.logger.Info("device created", "device_id", created.ID, "type", created.Type, "name", created.Name)
	return created, nil
}

// UpdateDevice applies patch. Switching a device to GATEWAY drops its
// room; RegenerateToken replaces the token, invalidating the old one in
// the same write.
func (r *DeviceRegistry) UpdateDevice(ctx context.Context, id int64, patch DevicePatch) (store.DeviceRecord, error) {
	cur, err := r.Get(ctx, id)
	if err != nil {
		return store.DeviceRecord{}, err
	}

	v := &ValidationError{}
	next := cur
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
		if next.Name == "" {
			v.add("name", "must not be empty")
		}
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			v.add("type", "must be GATEWAY or ROOM_SENSOR")
		}
		next.Type = *patch.Type
	}
	if patch.ClearRoom && patch.RoomID != nil {
		v.add("room_id", "cannot be combined with clear_room")
	}
	if err := v.orNil(); err != nil {
		return store.DeviceRecord{}, err
	}

	switch {
	case patch.ClearRoom:
		next.RoomID = nil
	case patch.RoomID != nil:
		room := *patch.RoomID
		next.RoomID = &room
	}
	if next.Type == types.DeviceGateway {
		next.RoomID = nil
	}
	if patch.Active != nil {
		next.Active = *patch.Active
	}
	if patch.RoomID != nil && next.RoomID != nil {
		if err := r.checkRoom(ctx, next.RoomID); err != nil {
			return store.DeviceRecord{}, err
		}
	}

	var updated store.DeviceRecord
	if patch.RegenerateToken {
		updated, err = r.withFreshToken(ctx, func(token string) (store.DeviceRecord, error) {
			next.Token = token
			return r.devices.UpdateDevice(ctx, next)
		})
	} else {
		updated, err = r.devices.UpdateDevice(ctx, next)
	}
	if errors.Is(err, store.ErrNotFound) {
		return store.DeviceRecord{}, ErrDeviceNotFound
	}
	if err != nil {
		return store.DeviceRecord{}, err
	}

	r.logger.Info("device updated", "device_id", id, "token_rotated", patch.RegenerateToken)
	return updated, nil
}

func (r *DeviceRegistry) RegenerateToken(ctx context.Context, id int64) (store.DeviceRecord, error) {
	return r.UpdateDevice(ctx, id, DevicePatch{RegenerateToken: true})
}

// DeleteDevice refuses, via the store's referential integrity, to remove a
// device that has audit rows.
func (r *DeviceRegistry) DeleteDevice(ctx context.Context, id int64) error {
	err := r.devices.DeleteDevice(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrDeviceNotFound
	case errors.Is(err, store.ErrHasDependents):
		return ErrDeviceHasDependents
	case err != nil:
		return err
	}
	r.logger.Info("device deleted", "device_id", id)
	return nil
}

// withFreshToken retries write on token collisions, at most
// maxTokenAttempts times.
func (r *DeviceRegistry) withFreshToken(ctx context.Context, write func(token string) (store.DeviceRecord, error)) (store.DeviceRecord, error) {
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := r.newToken()
		if err != nil {
			return store.DeviceRecord{}, fmt.Errorf("generate token: %w", err)
		}
		rec, err := write(token)
		if errors.Is(err, store.ErrTokenConflict) {
			r.logger.Warn("device token collision", "attempt", attempt)
			continue
		}
		return rec, err
	}
	return store.DeviceRecord{}, ErrTokenAllocation
}

func (r *DeviceRegistry) checkRoom(ctx context.Context, roomID *int64) error {
	if roomID == nil {
		return nil
	}
	_, err := r.rooms.GetRoom(ctx, *roomID)
	if errors.Is(err, store.ErrNotFound) {
		return &ValidationError{Fields: []FieldError{{Field: "room_id", Message: "room not found"}}}
	}
	return err
}
