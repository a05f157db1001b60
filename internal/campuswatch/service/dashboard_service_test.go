package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

func TestDashboard_RoomStatusesClassifyLatest(t *testing.T) {
	ctx := context.Background()
	st := newDirectory()
	sensor := mustCreateDevice(t, st, types.DeviceRoomSensor, "s1", true)
	rec := service.NewTelemetryService(defaults(), st, st, quiet)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, temp := range []float64{22, 31} {
		_, err := rec.Record(ctx, sensor, service.TelemetrySample{
			RoomID: 3, Temperature: temp, Humidity: 50, MeasuredAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	dash := service.NewDashboardService(defaults(), st, st, st)
	statuses, err := dash.RoomStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byRoom := map[int64]types.RoomStatusView{}
	for _, s := range statuses {
		byRoom[s.RoomID] = s
	}
	require.NotNil(t, byRoom[3].Latest)
	assert.Equal(t, 31.0, byRoom[3].Latest.Temperature)
	assert.Equal(t, types.StatusCritical, byRoom[3].Latest.Status)
	assert.Nil(t, byRoom[5].Latest)
}

func TestDashboard_ReportTables(t *testing.T) {
	ctx := context.Background()
	st := newDirectory()
	gw := mustCreateDevice(t, st, types.DeviceGateway, "gw", true)
	_, err := service.NewAccessService(defaults(), st, st, quiet).
		Evaluate(ctx, gw, service.AccessAttempt{StudentID: 7})
	require.NoError(t, err)

	dash := service.NewDashboardService(defaults(), st, st, st)
	tbl, err := dash.AccessEventsTable(ctx, store.EventFilter{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, len(tbl.Headers), len(tbl.Rows[0]))
	assert.Equal(t, "DENY", tbl.Rows[0][3])
	assert.Equal(t, "STUDENT_INACTIVE", tbl.Rows[0][4])

	readings, err := dash.ReadingsTable(ctx, store.ReadingFilter{})
	require.NoError(t, err)
	assert.Empty(t, readings.Rows)
	assert.NotEmpty(t, readings.Headers)
}
