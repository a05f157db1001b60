package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
	"github.com/BrandonDHaskell/campuswatch/internal/report"
)

const (
	maxListLimit      = 1000
	defaultReportRows = 5000
	maxReportRows     = 20000
)

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	f, fields := readingFilter(r, maxListLimit, 0)
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	views, err := s.dashboard.Readings(r.Context(), f)
	if err != nil {
		s.internalError(w, r, "list readings", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRoomStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.dashboard.RoomStatuses(r.Context())
	if err != nil {
		s.internalError(w, r, "room status", err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) handleAccessEvents(w http.ResponseWriter, r *http.Request) {
	f, fields := eventFilter(r, maxListLimit, 0)
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	views, err := s.dashboard.AccessEvents(r.Context(), f)
	if err != nil {
		s.internalError(w, r, "list access events", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleReport serves {readings|access-events}.{csv|pdf}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	kind, format, ok := strings.Cut(file, ".")
	if !ok || (format != "csv" && format != "pdf") {
		writeError(w, http.StatusNotFound, "not_found", "unknown report "+file)
		return
	}

	var (
		tbl    report.Table
		err    error
		fields []service.FieldError
	)
	switch kind {
	case "readings":
		var f store.ReadingFilter
		if f, fields = readingFilter(r, maxReportRows, defaultReportRows); len(fields) == 0 {
			tbl, err = s.dashboard.ReadingsTable(r.Context(), f)
		}
	case "access-events":
		var f store.EventFilter
		if f, fields = eventFilter(r, maxReportRows, defaultReportRows); len(fields) == 0 {
			tbl, err = s.dashboard.AccessEventsTable(r.Context(), f)
		}
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown report "+file)
		return
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	if err != nil {
		s.internalError(w, r, "build report", err)
		return
	}

	now := s.now()
	tbl.Subtitle = fmt.Sprintf("Generated %s - %d rows", types.FormatTimestamp(now), len(tbl.Rows))

	var (
		body        []byte
		contentType string
	)
	if format == "csv" {
		body, err = report.CSV(tbl)
		contentType = "text/csv; charset=utf-8"
	} else {
		body, err = report.PDF(tbl)
		contentType = "application/pdf"
	}
	if err != nil {
		s.internalError(w, r, "render report", err)
		return
	}

	name := fmt.Sprintf("%s-%s.%s", kind, now.Format("20060102-1504"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func readingFilter(r *http.Request, maxLimit, def int) (store.ReadingFilter, []service.FieldError) {
	var (
		f      store.ReadingFilter
		fields []service.FieldError
	)
	q := r.URL.Query()
	if v := q.Get("room_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			fields = append(fields, service.FieldError{Field: "room_id", Message: "must be a positive integer"})
		}
		f.RoomID = id
	}
	f.Limit, fields = parseLimit(q.Get("limit"), maxLimit, def, fields)
	f.Since, fields = parseSince(q.Get("since"), fields)
	return f, fields
}

func eventFilter(r *http.Request, maxLimit, def int) (store.EventFilter, []service.FieldError) {
	var (
		f      store.EventFilter
		fields []service.FieldError
	)
	q := r.URL.Query()
	if v := q.Get("device_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			fields = append(fields, service.FieldError{Field: "device_id", Message: "must be a positive integer"})
		}
		f.DeviceID = id
	}
	f.Limit, fields = parseLimit(q.Get("limit"), maxLimit, def, fields)
	f.Since, fields = parseSince(q.Get("since"), fields)
	return f, fields
}

func parseLimit(v string, maxLimit, def int, fields []service.FieldError) (int, []service.FieldError) {
	if v == "" {
		return def, fields
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxLimit {
		return 0, append(fields, service.FieldError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxLimit)})
	}
	return n, fields
}

func parseSince(v string, fields []service.FieldError) (time.Time, []service.FieldError) {
	if v == "" {
		return time.Time{}, fields
	}
	t, ok := types.ParseTimestamp(v)
	if !ok {
		return time.Time{}, append(fields, service.FieldError{Field: "since", Message: "must be an ISO-8601 timestamp"})
	}
	return t, fields
}
