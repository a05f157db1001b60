package httpapi

import (
	"net/http"
	"strconv"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// ── Devices ──────────────────────────────────────────────────────────────────

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "list devices", err)
		return
	}
	out := make([]types.DeviceView, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceView(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := s.registry.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "get device", err)
		return
	}
	writeJSON(w, http.StatusOK, deviceView(d))
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req types.DeviceCreateRequest
	if err := s.decode(r, &req, maxAdminBody); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	typ, _ := types.ParseDeviceType(req.Type)

	d, err := s.registry.CreateDevice(r.Context(), service.DeviceInput{
		Name:   req.Name,
		Type:   typ,
		RoomID: req.RoomID,
		Active: req.Active,
	})
	if err != nil {
		s.writeServiceError(w, r, "create device", err)
		return
	}
	s.logger.Info("admin created device", "device_id", d.ID, "by", adminSubject(r.Context()))
	writeJSON(w, http.StatusCreated, deviceWithToken(d))
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req types.DeviceUpdateRequest
	if err := s.decode(r, &req, maxAdminBody); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	patch := service.DevicePatch{
		Name:            req.Name,
		RoomID:          req.RoomID,
		ClearRoom:       req.ClearRoom,
		Active:          req.Active,
		RegenerateToken: req.RegenerateToken,
	}
	if req.Type != nil {
		typ, _ := types.ParseDeviceType(*req.Type)
		patch.Type = &typ
	}

	d, err := s.registry.UpdateDevice(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, "update device", err)
		return
	}
	s.logger.Info("admin updated device", "device_id", id, "by", adminSubject(r.Context()))
	if req.RegenerateToken {
		writeJSON(w, http.StatusOK, deviceWithToken(d))
		return
	}
	writeJSON(w, http.StatusOK, deviceView(d))
}

func (s *Server) handleRegenerateToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := s.registry.RegenerateToken(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "regenerate token", err)
		return
	}
	s.logger.Info("admin rotated device token", "device_id", id, "by", adminSubject(r.Context()))
	writeJSON(w, http.StatusOK, deviceWithToken(d))
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.registry.DeleteDevice(r.Context(), id); err != nil {
		s.writeServiceError(w, r, "delete device", err)
		return
	}
	s.logger.Info("admin deleted device", "device_id", id, "by", adminSubject(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// ── Settings ─────────────────────────────────────────────────────────────────

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cur, err := s.settings.Current(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, cur.View())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req types.SettingsUpdateRequest
	if err := s.decode(r, &req, maxAdminBody); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}
	next, err := s.settings.Update(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "update settings", err)
		return
	}
	s.logger.Info("admin updated settings", "by", adminSubject(r.Context()))
	writeJSON(w, http.StatusOK, next.View())
}

// ── Conversions ──────────────────────────────────────────────────────────────

func deviceView(d store.DeviceRecord) types.DeviceView {
	v := types.DeviceView{
		ID:        d.ID,
		Name:      d.Name,
		Type:      d.Type,
		RoomID:    d.RoomID,
		Active:    d.Active,
		CreatedAt: types.FormatTimestamp(d.CreatedAt),
		UpdatedAt: types.FormatTimestamp(d.UpdatedAt),
	}
	if d.LastSeenAt != nil {
		v.LastSeenAt = types.FormatTimestamp(*d.LastSeenAt)
	}
	return v
}

func deviceWithToken(d store.DeviceRecord) types.DeviceWithToken {
	return types.DeviceWithToken{DeviceView: deviceView(d), Token: d.Token}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
