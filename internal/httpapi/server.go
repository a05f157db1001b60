package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/adminauth"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
	"github.com/go-playground/validator/v10"
)

type Dependencies struct {
	Logger *slog.Logger
	Addr   string

	Registry  *service.DeviceRegistry
	Access    *service.AccessService
	Telemetry *service.TelemetryService
	Settings  *service.SettingsService
	Dashboard *service.DashboardService

	Admins      TokenVerifier
	Permissions adminauth.PermissionChecker // defaults to ClaimsChecker

	// Health reports whether storage is reachable. Nil means always up.
	Health func(ctx context.Context) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	mux        *http.ServeMux
	validate   *validator.Validate

	registry  *service.DeviceRegistry
	access    *service.AccessService
	telemetry *service.TelemetryService
	settings  *service.SettingsService
	dashboard *service.DashboardService

	admins      TokenVerifier
	permissions adminauth.PermissionChecker
	health      func(ctx context.Context) error
	now         func() time.Time
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:      d.Logger,
		mux:         mux,
		validate:    newValidator(),
		registry:    d.Registry,
		access:      d.Access,
		telemetry:   d.Telemetry,
		settings:    d.Settings,
		dashboard:   d.Dashboard,
		admins:      d.Admins,
		permissions: d.Permissions,
		health:      d.Health,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if s.permissions == nil {
		s.permissions = adminauth.ClaimsChecker{}
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Device ingestion
	mux.HandleFunc("POST /api/iot/access", s.requireDevice(types.DeviceGateway, s.handleAccess))
	mux.HandleFunc("POST /api/iot/telemetry", s.requireDevice(types.DeviceRoomSensor, s.handleTelemetry))

	// Device administration
	manage := adminauth.PermDevicesManage
	mux.HandleFunc("GET /api/admin/devices", s.requireAdmin(manage, s.handleListDevices))
	mux.HandleFunc("POST /api/admin/devices", s.requireAdmin(manage, s.handleCreateDevice))
	mux.HandleFunc("GET /api/admin/devices/{id}", s.requireAdmin(manage, s.handleGetDevice))
	mux.HandleFunc("PATCH /api/admin/devices/{id}", s.requireAdmin(manage, s.handleUpdateDevice))
	mux.HandleFunc("DELETE /api/admin/devices/{id}", s.requireAdmin(manage, s.handleDeleteDevice))
	mux.HandleFunc("POST /api/admin/devices/{id}/token", s.requireAdmin(manage, s.handleRegenerateToken))

	// Monitoring settings
	mux.HandleFunc("GET /api/admin/monitoring/settings", s.requireAdmin(adminauth.PermSettingsView, s.handleGetSettings))
	mux.HandleFunc("PUT /api/admin/monitoring/settings", s.requireAdmin(adminauth.PermSettingsManage, s.handlePutSettings))

	// Dashboard
	mux.HandleFunc("GET /api/admin/monitoring/readings", s.requireAdmin(adminauth.PermView, s.handleReadings))
	mux.HandleFunc("GET /api/admin/monitoring/rooms/status", s.requireAdmin(adminauth.PermView, s.handleRoomStatus))
	mux.HandleFunc("GET /api/admin/monitoring/access-events", s.requireAdmin(adminauth.PermView, s.handleAccessEvents))

	// Reports
	mux.HandleFunc("GET /api/admin/reports/{file}", s.requireAdmin(adminauth.PermReportsExport, s.handleReport))

	handler := requestIDMiddleware(loggingMiddleware(d.Logger, recoverMiddleware(d.Logger, mux)))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Error("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps admin-path service errors to HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Fields)
	case errors.Is(err, service.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrDeviceHasDependents):
		writeError(w, http.StatusConflict, "has_dependents", err.Error())
	case errors.Is(err, service.ErrTokenAllocation):
		s.logger.Error(op+" failed", "err", err, "request_id", requestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "token_allocation_failed", err.Error())
	default:
		s.internalError(w, r, op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op+" failed", "err", err, "request_id", requestIDFrom(r.Context()))
	reply(w, r, http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "unexpected server error"})
}
