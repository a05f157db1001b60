package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// AccessAttempt is one RFID scan at a gateway. Empty metadata fields are
// filled from the hardware profile; a zero OccurredAt means "now".
type AccessAttempt struct {
	StudentID  int64
	OccurredAt time.Time
	Meta       store.AccessMetadata
}

type AccessDecision struct {
	Result                types.AccessResult
	Reason                types.AccessReason
	UnlockDurationSeconds int
	EventID               int64
}

func (d AccessDecision) Response() types.AccessResponse {
	return types.AccessResponse{
		Result:                d.Result,
		Reason:                d.Reason,
		UnlockDurationSeconds: d.UnlockDurationSeconds,
	}
}

type AccessService struct {
	settings SettingsProvider
	students store.StudentStore
	events   store.AccessEventStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewAccessService(settings SettingsProvider, students store.StudentStore, events store.AccessEventStore, logger *slog.Logger) *AccessService {
	return &AccessService{
		settings: settings,
		students: students,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate decides one access attempt and writes exactly one audit event
// for it, ALLOW or DENY. Denials are returned as values; an error means
// the settings could not be read or the event could not be stored, and no
// decision should be acted on.
func (s *AccessService) Evaluate(ctx context.Context, device store.DeviceRecord, a AccessAttempt) (AccessDecision, error) {
	cfg, err := s.settings.Current(ctx)
	if err != nil {
		return AccessDecision{}, err
	}

	reason, err := s.decide(ctx, cfg, device, a.StudentID)
	if err != nil {
		return AccessDecision{}, err
	}

	received := s.now()
	occurred := a.OccurredAt
	if occurred.IsZero() {
		occurred = received
	}

	rec := store.AccessEventRecord{
		DeviceID:   device.ID,
		StudentID:  a.StudentID,
		Result:     reason.Result(),
		Reason:     reason,
		Meta:       accessMetaDefaults(a.Meta, cfg.HardwareProfile),
		OccurredAt: occurred.UTC(),
		ReceivedAt: received,
	}
	id, err := s.events.RecordEvent(ctx, rec)
	if err != nil {
		return AccessDecision{}, fmt.Errorf("record access event: %w", err)
	}

	s.logger.Info("access decided",
		"device_id", device.ID,
		"student_id", a.StudentID,
		"result", rec.Result,
		"reason", reason,
	)

	return AccessDecision{
		Result:                rec.Result,
		Reason:                reason,
		UnlockDurationSeconds: cfg.UnlockDurationSeconds,
		EventID:               id,
	}, nil
}

func (s *AccessService) decide(ctx context.Context, cfg Settings, device store.DeviceRecord, studentID int64) (types.AccessReason, error) {
	// The HTTP layer rejects inactive devices before this point; other
	// callers get a recorded denial rather than an unlock.
	if !device.Active {
		return types.AccessReasonDeviceInactive, nil
	}
	if device.Type != types.DeviceGateway {
		return types.AccessReasonInvalidDevice, nil
	}

	st, err := s.students.GetStudent(ctx, studentID)
	if errors.Is(err, store.ErrNotFound) {
		return types.AccessReasonStudentNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup student: %w", err)
	}
	if !st.Active && cfg.AllowOnlyActiveStudents {
		return types.AccessReasonStudentInactive, nil
	}
	return types.AccessReasonOK, nil
}

func accessMetaDefaults(m store.AccessMetadata, p types.HardwareProfile) store.AccessMetadata {
	return store.AccessMetadata{
		Transport:    firstNonEmpty(m.Transport, p.Transport),
		Connectivity: firstNonEmpty(m.Connectivity, p.Connectivity),
		ReaderModel:  firstNonEmpty(m.ReaderModel, p.Access.ReaderModel),
		Frequency:    firstNonEmpty(m.Frequency, p.Access.Frequency),
		CardID:       strings.TrimSpace(m.CardID),
	}
}

func firstNonEmpty(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
