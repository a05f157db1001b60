package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// Hardware the firmware builds currently support. Stored profiles are
// re-normalized against these on every read.
var (
	SupportedTransports   = []string{"HTTP_JSON", "HTTP_PROTOBUF"}
	SupportedConnectivity = []string{"WIFI", "ETHERNET"}
	SupportedSensorModels = []string{"SHT31", "SHT35"}
	SupportedReaderModels = []string{"RC522", "PN532"}
)

const (
	defaultI2CAddress      = "0x44"
	defaultFrequency       = "13.56MHz"
	defaultTelemetryPath   = "/api/iot/telemetry"
	defaultAccessPath      = "/api/iot/access"
	maxProfileStringLength = 64
)

var i2cAddressRe = regexp.MustCompile(`^0x[0-9A-Fa-f]{2}$`)

// ValidI2CAddress reports whether s looks like "0x44".
func ValidI2CAddress(s string) bool {
	return i2cAddressRe.MatchString(s)
}

func DefaultHardwareProfile() types.HardwareProfile {
	return types.HardwareProfile{
		Transport:    SupportedTransports[0],
		Connectivity: SupportedConnectivity[0],
		Sensor: types.SensorProfile{
			Model:           SupportedSensorModels[0],
			SupportedModels: append([]string(nil), SupportedSensorModels...),
			I2CAddress:      defaultI2CAddress,
			IngestPath:      defaultTelemetryPath,
		},
		Access: types.AccessProfile{
			ReaderModel: SupportedReaderModels[0],
			Frequency:   defaultFrequency,
			IngestPath:  defaultAccessPath,
		},
	}
}

// ParseHardwareProfile decodes a stored profile and normalizes it. Bad
// syntax yields the default profile; fields of the wrong JSON type fall
// back to their defaults individually.
func ParseHardwareProfile(raw string) types.HardwareProfile {
	var p types.HardwareProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return DefaultHardwareProfile()
		}
	}
	return NormalizeHardwareProfile(p)
}

// NormalizeHardwareProfile replaces every missing or unsupported field
// with its default and resets SupportedModels to the current set.
// NormalizeHardwareProfile(NormalizeHardwareProfile(p)) == NormalizeHardwareProfile(p).
func NormalizeHardwareProfile(p types.HardwareProfile) types.HardwareProfile {
	d := DefaultHardwareProfile()

	return types.HardwareProfile{
		Transport:    oneOf(p.Transport, SupportedTransports, d.Transport),
		Connectivity: oneOf(p.Connectivity, SupportedConnectivity, d.Connectivity),
		Sensor: types.SensorProfile{
			Model:           oneOf(p.Sensor.Model, SupportedSensorModels, d.Sensor.Model),
			SupportedModels: d.Sensor.SupportedModels,
			I2CAddress:      normalizeI2C(p.Sensor.I2CAddress, d.Sensor.I2CAddress),
			IngestPath:      normalizePath(p.Sensor.IngestPath, d.Sensor.IngestPath),
		},
		Access: types.AccessProfile{
			ReaderModel: oneOf(p.Access.ReaderModel, SupportedReaderModels, d.Access.ReaderModel),
			Frequency:   boundedString(p.Access.Frequency, d.Access.Frequency),
			IngestPath:  normalizePath(p.Access.IngestPath, d.Access.IngestPath),
		},
	}
}

// EncodeHardwareProfile is the canonical stored form.
func EncodeHardwareProfile(p types.HardwareProfile) string {
	b, err := json.Marshal(p)
	if err != nil {
		// Only strings and string slices; cannot fail.
		panic(err)
	}
	return string(b)
}

func oneOf(v string, allowed []string, def string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return def
}

func normalizeI2C(v, def string) string {
	v = strings.TrimSpace(v)
	if !ValidI2CAddress(v) {
		return def
	}
	return "0x" + strings.ToUpper(v[2:])
}

func normalizePath(v, def string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "/") || len(v) > maxProfileStringLength || strings.ContainsAny(v, " ?#") {
		return def
	}
	return v
}

func boundedString(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxProfileStringLength {
		return def
	}
	return v
}
