package types

import "strings"

type DeviceType string

const (
	DeviceGateway    DeviceType = "GATEWAY"
	DeviceRoomSensor DeviceType = "ROOM_SENSOR"
)

func (t DeviceType) Valid() bool {
	return t == DeviceGateway || t == DeviceRoomSensor
}

// ParseDeviceType accepts any casing.
func ParseDeviceType(s string) (DeviceType, bool) {
	t := DeviceType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

type DeviceCreateRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Type   string `json:"type" validate:"required,oneof=GATEWAY ROOM_SENSOR"`
	RoomID *int64 `json:"room_id,omitempty" validate:"omitempty,gt=0"`
	Active *bool  `json:"is_active,omitempty"`
}

// DeviceUpdateRequest is a partial update. ClearRoom unbinds a sensor;
// RegenerateToken issues a fresh bearer token.
type DeviceUpdateRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Type            *string `json:"type,omitempty" validate:"omitempty,oneof=GATEWAY ROOM_SENSOR"`
	RoomID          *int64  `json:"room_id,omitempty" validate:"omitempty,gt=0"`
	ClearRoom       bool    `json:"clear_room,omitempty"`
	Active          *bool   `json:"is_active,omitempty"`
	RegenerateToken bool    `json:"regenerate_token,omitempty"`
}

// DeviceView never includes the token; DeviceWithToken is returned only
// from create and regenerate.
type DeviceView struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Type       DeviceType `json:"type"`
	RoomID     *int64     `json:"room_id"`
	Active     bool       `json:"is_active"`
	LastSeenAt string     `json:"last_seen_at,omitempty"`
	CreatedAt  string     `json:"created_at"`
	UpdatedAt  string     `json:"updated_at"`
}

type DeviceWithToken struct {
	DeviceView
	Token string `json:"token"`
}
