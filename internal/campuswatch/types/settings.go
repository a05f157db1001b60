package types

// HardwareProfile describes the expected transport, sensor and reader of
// deployed hardware. It supplies defaults for event and reading metadata.
type HardwareProfile struct {
	Transport    string        `json:"transport"`
	Connectivity string        `json:"connectivity"`
	Sensor       SensorProfile `json:"sensor"`
	Access       AccessProfile `json:"access"`
}

type SensorProfile struct {
	Model           string   `json:"model"`
	SupportedModels []string `json:"supported_models"`
	I2CAddress      string   `json:"i2c_address"`
	IngestPath      string   `json:"ingest_path"`
}

type AccessProfile struct {
	ReaderModel string `json:"reader_model"`
	Frequency   string `json:"frequency"`
	IngestPath  string `json:"ingest_path"`
}

// SettingsView is the admin wire form of the monitoring settings.
type SettingsView struct {
	TempMin                  float64         `json:"temp_min"`
	TempMax                  float64         `json:"temp_max"`
	HumMin                   float64         `json:"hum_min"`
	HumMax                   float64         `json:"hum_max"`
	TelemetryIntervalSeconds int             `json:"telemetry_interval_seconds"`
	UnlockDurationSeconds    int             `json:"unlock_duration_seconds"`
	AllowOnlyActiveStudents  bool            `json:"allow_only_active_students"`
	HardwareProfile          HardwareProfile `json:"hardware_profile"`
	UpdatedAt                string          `json:"updated_at"`
}

// SettingsUpdateRequest is a partial update; nil fields keep their value.
// The hardware profile, when present, is normalized before it is stored.
type SettingsUpdateRequest struct {
	TempMin                  *float64         `json:"temp_min,omitempty"`
	TempMax                  *float64         `json:"temp_max,omitempty"`
	HumMin                   *float64         `json:"hum_min,omitempty"`
	HumMax                   *float64         `json:"hum_max,omitempty"`
	TelemetryIntervalSeconds *int             `json:"telemetry_interval_seconds,omitempty" validate:"omitempty,min=5,max=86400"`
	UnlockDurationSeconds    *int             `json:"unlock_duration_seconds,omitempty" validate:"omitempty,min=1,max=300"`
	AllowOnlyActiveStudents  *bool            `json:"allow_only_active_students,omitempty"`
	HardwareProfile          *HardwareProfile `json:"hardware_profile,omitempty"`
}
