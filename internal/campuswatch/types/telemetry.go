package types

// TelemetryFailure is the reason a telemetry submission was rejected.
// The zero value means the reading was accepted.
type TelemetryFailure string

const (
	TelemetryAccepted       TelemetryFailure = ""
	TelemetryDeviceInactive TelemetryFailure = "DEVICE_INACTIVE"
	TelemetryInvalidDevice  TelemetryFailure = "INVALID_DEVICE"
	TelemetryRoomNotFound   TelemetryFailure = "ROOM_NOT_FOUND"
	TelemetryRoomMismatch   TelemetryFailure = "ROOM_MISMATCH"
)

// ReadingStatus is the severity of a reading against configured thresholds.
type ReadingStatus string

const (
	StatusOK       ReadingStatus = "OK"
	StatusWarning  ReadingStatus = "WARNING"
	StatusCritical ReadingStatus = "CRITICAL"
)

// TelemetryRequest is the body of POST /api/iot/telemetry. Temperature and
// humidity are pointers so that 0 is distinguishable from missing.
type TelemetryRequest struct {
	RoomID       int64    `json:"room_id" validate:"required,gt=0"`
	Temperature  *float64 `json:"temperature" validate:"required"`
	Humidity     *float64 `json:"humidity" validate:"required"`
	SensorModel  string   `json:"sensor_model,omitempty" validate:"omitempty,oneof=SHT31 SHT35"`
	I2CAddress   string   `json:"i2c_address,omitempty" validate:"omitempty,i2caddr"`
	MeasuredAt   string   `json:"measured_at,omitempty" validate:"omitempty,iso8601"`
	Transport    string   `json:"transport,omitempty" validate:"omitempty,max=32"`
	Connectivity string   `json:"connectivity,omitempty" validate:"omitempty,max=32"`
}

type TelemetryResponse struct {
	Status string           `json:"status"`
	Reason TelemetryFailure `json:"reason,omitempty"`
}

// ReadingView is a stored reading plus its classification.
type ReadingView struct {
	ID           int64         `json:"id"`
	DeviceID     int64         `json:"device_id"`
	RoomID       int64         `json:"room_id"`
	RoomName     string        `json:"room_name,omitempty"`
	Temperature  float64       `json:"temperature"`
	Humidity     float64       `json:"humidity"`
	SensorModel  string        `json:"sensor_model"`
	I2CAddress   string        `json:"i2c_address"`
	Transport    string        `json:"transport"`
	Connectivity string        `json:"connectivity"`
	MeasuredAt   string        `json:"measured_at"`
	Status       ReadingStatus `json:"status"`
}

// RoomStatusView is the latest classified reading of one room. Rooms with
// no readings have a nil Latest.
type RoomStatusView struct {
	RoomID   int64        `json:"room_id"`
	RoomName string       `json:"room_name"`
	Location string       `json:"location,omitempty"`
	Active   bool         `json:"is_active"`
	Latest   *ReadingView `json:"latest"`
}
