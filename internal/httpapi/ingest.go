package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request, dev store.DeviceRecord) {
	var req types.AccessRequest
	if err := s.decode(r, &req, maxIngestBody); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	decision, err := s.access.Evaluate(r.Context(), dev, accessAttempt(req))
	if err != nil {
		s.internalError(w, r, "access evaluation", err)
		return
	}
	reply(w, r, http.StatusOK, decision.Response())
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request, dev store.DeviceRecord) {
	var req types.TelemetryRequest
	if err := s.decode(r, &req, maxIngestBody); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	out, err := s.telemetry.Record(r.Context(), dev, telemetrySample(req))
	if err != nil {
		s.internalError(w, r, "telemetry record", err)
		return
	}

	switch out.Failure {
	case types.TelemetryAccepted:
		reply(w, r, http.StatusOK, out.Response())
	case types.TelemetryDeviceInactive, types.TelemetryInvalidDevice:
		reply(w, r, http.StatusForbidden, out.Response())
	default:
		reply(w, r, http.StatusBadRequest, out.Response())
	}
}

func accessAttempt(req types.AccessRequest) service.AccessAttempt {
	return service.AccessAttempt{
		StudentID:  req.StudentID,
		OccurredAt: optionalTime(req.OccurredAt),
		Meta: store.AccessMetadata{
			Transport:    req.Transport,
			Connectivity: req.Connectivity,
			ReaderModel:  req.ReaderModel,
			Frequency:    req.Frequency,
			CardID:       req.CardID,
		},
	}
}

func telemetrySample(req types.TelemetryRequest) service.TelemetrySample {
	s := service.TelemetrySample{
		RoomID:     req.RoomID,
		MeasuredAt: optionalTime(req.MeasuredAt),
		Meta: store.TelemetryMetadata{
			Transport:    req.Transport,
			Connectivity: req.Connectivity,
			SensorModel:  req.SensorModel,
			I2CAddress:   strings.TrimSpace(req.I2CAddress),
		},
	}
	if req.Temperature != nil {
		s.Temperature = *req.Temperature
	}
	if req.Humidity != nil {
		s.Humidity = *req.Humidity
	}
	if a := s.Meta.I2CAddress; len(a) == 4 {
		s.Meta.I2CAddress = "0x" + strings.ToUpper(a[2:])
	}
	return s
}

// optionalTime parses an already-validated timestamp; empty yields zero.
func optionalTime(v string) time.Time {
	t, _ := types.ParseTimestamp(v)
	return t
}
