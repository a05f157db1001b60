package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/BrandonDHaskell/campuswatch/internal/adminauth"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// TokenVerifier parses admin bearer tokens.
type TokenVerifier interface {
	Parse(token string) (*adminauth.Claims, error)
}

type deviceHandler func(w http.ResponseWriter, r *http.Request, dev store.DeviceRecord)

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireDevice resolves the bearer token to an active device of the
// given type. Unknown or missing tokens get 401; inactive devices and
// the wrong device type get 403.
func (s *Server) requireDevice(want types.DeviceType, next deviceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			reply(w, r, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "missing bearer token"})
			return
		}

		res, err := s.registry.ResolveByToken(r.Context(), token)
		if err != nil {
			s.internalError(w, r, "resolve device token", err)
			return
		}

		switch res.Status {
		case service.TokenNotFound:
			reply(w, r, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "unknown device token"})
			return
		case service.TokenInactive:
			s.logger.Warn("inactive device rejected", "device_id", res.Device.ID, "path", r.URL.Path)
			reply(w, r, http.StatusForbidden, errorBody{Error: string(types.TelemetryDeviceInactive), Message: "device is inactive"})
			return
		}

		dev := res.Device
		s.registry.NoteSeen(r.Context(), dev.ID)

		if dev.Type != want {
			s.logger.Warn("device type rejected", "device_id", dev.ID, "type", dev.Type, "path", r.URL.Path)
			reply(w, r, http.StatusForbidden, errorBody{Error: string(types.TelemetryInvalidDevice), Message: "device type not allowed on this endpoint"})
			return
		}
		next(w, r, dev)
	}
}

// requireAdmin checks the admin JWT and that it grants perm.
func (s *Server) requireAdmin(perm string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := s.admins.Parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid admin token")
			return
		}
		if !s.permissions.HasPermission(claims, perm) {
			writeError(w, http.StatusForbidden, "forbidden", "missing permission "+perm)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxAdmin, claims)))
	}
}

func adminSubject(ctx context.Context) string {
	c, _ := ctx.Value(ctxAdmin).(*adminauth.Claims)
	if c == nil {
		return ""
	}
	return c.Subject
}
