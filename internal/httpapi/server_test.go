package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/campuswatch/internal/adminauth"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store/memory"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
	"github.com/BrandonDHaskell/campuswatch/internal/httpapi"
)

const testSecret = "test-secret"

type testEnv struct {
	ts     *httptest.Server
	store  *memory.Store
	admins *adminauth.Issuer
	health error
}

// newTestEnv wires the full dependency graph on one in-memory store with
// rooms 3 and 5, active student 1 and inactive student 7, and devices
// gateway "gw-token", sensor "sensor-token" and inactive gateway "off-token".
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	st := memory.New()
	st.PutRoom(store.RoomRecord{ID: 3, Name: "Lab 3", Active: true})
	st.PutRoom(store.RoomRecord{ID: 5, Name: "Library", Active: true})
	st.PutStudent(store.StudentRecord{ID: 1, Name: "Ada", Active: true})
	st.PutStudent(store.StudentRecord{ID: 7, Name: "Grace", Active: false})

	ctx := context.Background()
	for _, d := range []store.DeviceRecord{
		{Name: "Main gate", Type: types.DeviceGateway, Token: "gw-token", Active: true},
		{Name: "Lab sensor", Type: types.DeviceRoomSensor, Token: "sensor-token", Active: true},
		{Name: "Old gate", Type: types.DeviceGateway, Token: "off-token", Active: false},
	} {
		if _, err := st.CreateDevice(ctx, d); err != nil {
			t.Fatalf("CreateDevice: %v", err)
		}
	}

	settings := service.NewSettingsService(st, logger)
	env := &testEnv{store: st, admins: adminauth.NewIssuer(testSecret, time.Hour)}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      ":0",
		Registry:  service.NewDeviceRegistry(st, st, logger),
		Access:    service.NewAccessService(settings, st, st, logger),
		Telemetry: service.NewTelemetryService(settings, st, st, logger),
		Settings:  settings,
		Dashboard: service.NewDashboardService(settings, st, st, st),
		Admins:    env.admins,
		Health:    func(context.Context) error { return env.health },
	})

	env.ts = httptest.NewServer(srv.Handler())
	t.Cleanup(env.ts.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) adminToken(t *testing.T, perms ...string) string {
	t.Helper()
	tok, err := e.admins.Issue("ops", perms)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, body)
	}
}

// ── Access ───────────────────────────────────────────────────────────────────

func TestAccess_InactiveStudentDenied(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/iot/access", "gw-token", `{"student_id":7}`)
	expectStatus(t, resp, http.StatusOK)

	var got types.AccessResponse
	decodeJSON(t, resp, &got)
	if got.Result != types.AccessDeny || got.Reason != types.AccessReasonStudentInactive {
		t.Fatalf("expected DENY/STUDENT_INACTIVE, got %s/%s", got.Result, got.Reason)
	}
	if got.UnlockDurationSeconds != 5 {
		t.Errorf("expected unlock_duration_seconds=5, got %d", got.UnlockDurationSeconds)
	}

	events := env.store.Events()
	if len(events) != 1 || events[0].Reason != types.AccessReasonStudentInactive {
		t.Fatalf("expected one STUDENT_INACTIVE event, got %+v", events)
	}
}

func TestAccess_ActiveStudentAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/iot/access", "gw-token",
		`{"student_id":1,"occurred_at":"2026-03-01T08:15:00Z","card_id":"04A1B2"}`)
	expectStatus(t, resp, http.StatusOK)

	var got types.AccessResponse
	decodeJSON(t, resp, &got)
	if got.Result != types.AccessAllow || got.Reason != types.AccessReasonOK {
		t.Fatalf("expected ALLOW/OK, got %s/%s", got.Result, got.Reason)
	}
	ev := env.store.Events()[0]
	if !ev.OccurredAt.Equal(time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC)) {
		t.Errorf("unexpected occurred_at %v", ev.OccurredAt)
	}
	if ev.Meta.CardID != "04A1B2" {
		t.Errorf("unexpected card id %q", ev.Meta.CardID)
	}
}

func TestAccess_AuthFailures(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"unknown token", "nope", http.StatusUnauthorized},
		{"inactive device", "off-token", http.StatusForbidden},
		{"wrong device type", "sensor-token", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, "POST", "/api/iot/access", tc.token, `{"student_id":1}`)
			expectStatus(t, resp, tc.want)
		})
	}
	if n := len(env.store.Events()); n != 0 {
		t.Fatalf("rejected requests must not record events, got %d", n)
	}
}

func TestAccess_Validation(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"student_id":0}`,
		`{"student_id":1,"occurred_at":"yesterday"}`,
		`{"student_id":"seven"}`,
		`{"student_id":1,"unexpected":true}`,
		`not json`,
	} {
		resp := env.do(t, "POST", "/api/iot/access", "gw-token", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
	if n := len(env.store.Events()); n != 0 {
		t.Fatalf("invalid requests must not record events, got %d", n)
	}
}

func TestAccess_ValidationFieldDetail(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/iot/access", "gw-token", `{"student_id":-3}`)
	expectStatus(t, resp, http.StatusBadRequest)

	var body struct {
		Error  string               `json:"error"`
		Fields []service.FieldError `json:"fields"`
	}
	decodeJSON(t, resp, &body)
	if body.Error != "validation_failed" || len(body.Fields) != 1 || body.Fields[0].Field != "student_id" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestAccess_Protobuf(t *testing.T) {
	env := newTestEnv(t)

	msg, err := structpb.NewStruct(map[string]any{"student_id": 1})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	payload, err := proto.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	req, _ := http.NewRequest("POST", env.ts.URL+"/api/iot/access", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Authorization", "Bearer gw-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	if ct := resp.Header.Get("Content-Type"); ct != "application/x-protobuf" {
		t.Fatalf("expected protobuf response, got %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out structpb.Struct
	if err := proto.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := out.GetFields()["result"].GetStringValue(); got != "ALLOW" {
		t.Fatalf("expected ALLOW, got %q", got)
	}
}

// ── Telemetry ────────────────────────────────────────────────────────────────

func TestTelemetry_BindThenMismatch(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/iot/telemetry", "sensor-token",
		`{"room_id":3,"temperature":22.5,"humidity":48,"sensor_model":"SHT35","i2c_address":"0x45"}`)
	expectStatus(t, resp, http.StatusOK)
	var ok types.TelemetryResponse
	decodeJSON(t, resp, &ok)
	if ok.Status != "OK" {
		t.Fatalf("expected status OK, got %+v", ok)
	}

	resp = env.do(t, "POST", "/api/iot/telemetry", "sensor-token",
		`{"room_id":5,"temperature":22.5,"humidity":48}`)
	expectStatus(t, resp, http.StatusBadRequest)
	var rejected types.TelemetryResponse
	decodeJSON(t, resp, &rejected)
	if rejected.Reason != types.TelemetryRoomMismatch {
		t.Fatalf("expected ROOM_MISMATCH, got %+v", rejected)
	}

	readings := env.store.Readings()
	if len(readings) != 1 || readings[0].RoomID != 3 || readings[0].Meta.SensorModel != "SHT35" {
		t.Fatalf("unexpected readings %+v", readings)
	}
}

func TestTelemetry_UnknownRoom(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/iot/telemetry", "sensor-token",
		`{"room_id":99,"temperature":22,"humidity":50}`)
	expectStatus(t, resp, http.StatusBadRequest)
	var got types.TelemetryResponse
	decodeJSON(t, resp, &got)
	if got.Reason != types.TelemetryRoomNotFound {
		t.Fatalf("expected ROOM_NOT_FOUND, got %+v", got)
	}
}

func TestTelemetry_Validation(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"room_id":3,"humidity":50}`,
		`{"room_id":3,"temperature":22,"humidity":50,"sensor_model":"DHT22"}`,
		`{"room_id":3,"temperature":22,"humidity":50,"i2c_address":"68"}`,
		`{"room_id":3,"temperature":22,"humidity":50,"i2c_address":"0X44"}`,
		`{"room_id":0,"temperature":22,"humidity":50}`,
	} {
		resp := env.do(t, "POST", "/api/iot/telemetry", "sensor-token", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
	if n := len(env.store.Readings()); n != 0 {
		t.Fatalf("expected no readings, got %d", n)
	}
}

func TestTelemetry_ZeroValuesAccepted(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/iot/telemetry", "sensor-token",
		`{"room_id":3,"temperature":0,"humidity":0}`)
	expectStatus(t, resp, http.StatusOK)
}

func TestTelemetry_GatewayForbidden(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/iot/telemetry", "gw-token",
		`{"room_id":3,"temperature":22,"humidity":50}`)
	expectStatus(t, resp, http.StatusForbidden)
}

// ── Admin ────────────────────────────────────────────────────────────────────

func TestAdmin_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, "GET", "/api/admin/devices", "", ""), http.StatusUnauthorized)
	expectStatus(t, env.do(t, "GET", "/api/admin/devices", "gw-token", ""), http.StatusUnauthorized)

	viewer := env.adminToken(t, adminauth.PermView)
	expectStatus(t, env.do(t, "GET", "/api/admin/devices", viewer, ""), http.StatusForbidden)
}

func TestAdmin_DeviceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tok := env.adminToken(t, adminauth.PermDevicesManage)

	resp := env.do(t, "POST", "/api/admin/devices", tok, `{"name":"North gate","type":"GATEWAY","room_id":3}`)
	expectStatus(t, resp, http.StatusCreated)
	var created types.DeviceWithToken
	decodeJSON(t, resp, &created)
	if created.RoomID != nil {
		t.Errorf("gateway should not have a room, got %d", *created.RoomID)
	}
	if !strings.HasPrefix(created.Token, "dev-") {
		t.Fatalf("unexpected token %q", created.Token)
	}

	// The new token works for ingestion.
	expectStatus(t, env.do(t, "POST", "/api/iot/access", created.Token, `{"student_id":1}`), http.StatusOK)

	resp = env.do(t, "POST", "/api/admin/devices/"+itoa(created.ID)+"/token", tok, "")
	expectStatus(t, resp, http.StatusOK)
	var rotated types.DeviceWithToken
	decodeJSON(t, resp, &rotated)
	if rotated.Token == created.Token {
		t.Fatal("expected a new token")
	}
	expectStatus(t, env.do(t, "POST", "/api/iot/access", created.Token, `{"student_id":1}`), http.StatusUnauthorized)

	// It now has an access event, so delete is refused.
	expectStatus(t, env.do(t, "DELETE", "/api/admin/devices/"+itoa(created.ID), tok, ""), http.StatusConflict)

	resp = env.do(t, "PATCH", "/api/admin/devices/"+itoa(created.ID), tok, `{"is_active":false}`)
	expectStatus(t, resp, http.StatusOK)
	expectStatus(t, env.do(t, "POST", "/api/iot/access", rotated.Token, `{"student_id":1}`), http.StatusForbidden)

	expectStatus(t, env.do(t, "GET", "/api/admin/devices/999", tok, ""), http.StatusNotFound)
}

func TestAdmin_CreateDeviceValidation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.adminToken(t, adminauth.PermDevicesManage)

	expectStatus(t, env.do(t, "POST", "/api/admin/devices", tok, `{"name":"x","type":"DOORBELL"}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, "POST", "/api/admin/devices", tok, `{"name":"x","type":"ROOM_SENSOR","room_id":42}`), http.StatusBadRequest)
}

func TestAdmin_Settings(t *testing.T) {
	env := newTestEnv(t)
	view := env.adminToken(t, adminauth.PermSettingsView)
	manage := env.adminToken(t, adminauth.PermSettingsManage)

	resp := env.do(t, "GET", "/api/admin/monitoring/settings", view, "")
	expectStatus(t, resp, http.StatusOK)
	var raw map[string]any
	decodeJSON(t, resp, &raw)
	if raw["temp_min"] != float64(20) || raw["telemetry_interval_seconds"] != float64(60) {
		t.Fatalf("unexpected settings %v", raw)
	}

	expectStatus(t, env.do(t, "PUT", "/api/admin/monitoring/settings", view, `{"temp_min":18}`), http.StatusForbidden)

	resp = env.do(t, "PUT", "/api/admin/monitoring/settings", manage, `{"temp_min":30}`)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, "PUT", "/api/admin/monitoring/settings", manage, `{"temp_min":18,"unlock_duration_seconds":8}`)
	expectStatus(t, resp, http.StatusOK)
	var updated types.SettingsView
	decodeJSON(t, resp, &updated)
	if updated.TempMin != 18 || updated.UnlockDurationSeconds != 8 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	var got types.AccessResponse
	decodeJSON(t, env.do(t, "POST", "/api/iot/access", "gw-token", `{"student_id":1}`), &got)
	if got.UnlockDurationSeconds != 8 {
		t.Errorf("new unlock duration should apply, got %d", got.UnlockDurationSeconds)
	}
}

func TestDashboard_ReadingsClassified(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, "POST", "/api/iot/telemetry", "sensor-token",
		`{"room_id":3,"temperature":35,"humidity":50}`), http.StatusOK)

	tok := env.adminToken(t, adminauth.PermView)
	resp := env.do(t, "GET", "/api/admin/monitoring/readings?room_id=3&limit=10", tok, "")
	expectStatus(t, resp, http.StatusOK)
	var readings []types.ReadingView
	decodeJSON(t, resp, &readings)
	if len(readings) != 1 || readings[0].Status != types.StatusCritical || readings[0].RoomName != "Lab 3" {
		t.Fatalf("unexpected readings %+v", readings)
	}

	resp = env.do(t, "GET", "/api/admin/monitoring/rooms/status", tok, "")
	expectStatus(t, resp, http.StatusOK)
	var rooms []types.RoomStatusView
	decodeJSON(t, resp, &rooms)
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}

	expectStatus(t, env.do(t, "GET", "/api/admin/monitoring/readings?limit=0", tok, ""), http.StatusBadRequest)
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, "POST", "/api/iot/access", "gw-token", `{"student_id":7,"card_id":"=HYPERLINK(1)"}`), http.StatusOK)
	tok := env.adminToken(t, adminauth.PermReportsExport)

	resp := env.do(t, "GET", "/api/admin/reports/access-events.csv", tok, "")
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\xEF\xBB\xBF")) {
		t.Fatal("expected BOM")
	}
	if !strings.Contains(string(body), "'=HYPERLINK(1)") {
		t.Errorf("formula cell not hardened: %s", body)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "access-events-") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	resp = env.do(t, "GET", "/api/admin/reports/readings.pdf", tok, "")
	expectStatus(t, resp, http.StatusOK)
	body, _ = io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("%PDF-1.4")) {
		t.Fatalf("expected PDF, got %q", body[:min(len(body), 16)])
	}

	expectStatus(t, env.do(t, "GET", "/api/admin/reports/grades.pdf", tok, ""), http.StatusNotFound)
	expectStatus(t, env.do(t, "GET", "/api/admin/reports/readings.xlsx", tok, ""), http.StatusNotFound)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, "GET", "/healthz", "", ""), http.StatusOK)

	env.health = errors.New("db down")
	expectStatus(t, env.do(t, "GET", "/healthz", "", ""), http.StatusServiceUnavailable)
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/healthz", "", "")
	if id := resp.Header.Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("expected generated uuid request id, got %q", id)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
