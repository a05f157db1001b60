package types

// AccessResult is the terminal outcome of one RFID access attempt.
type AccessResult string

const (
	AccessAllow AccessResult = "ALLOW"
	AccessDeny  AccessResult = "DENY"
)

// AccessReason explains an AccessResult. DENY outcomes are recorded, not
// raised, so every value here is a normal return.
type AccessReason string

const (
	AccessReasonOK              AccessReason = "OK"
	AccessReasonInvalidDevice   AccessReason = "INVALID_DEVICE"
	AccessReasonDeviceInactive  AccessReason = "DEVICE_INACTIVE"
	AccessReasonStudentNotFound AccessReason = "STUDENT_NOT_FOUND"
	AccessReasonStudentInactive AccessReason = "STUDENT_INACTIVE"
)

// Result maps a reason to the decision it implies.
func (r AccessReason) Result() AccessResult {
	if r == AccessReasonOK {
		return AccessAllow
	}
	return AccessDeny
}

// AccessRequest is the body of POST /api/iot/access. Optional metadata
// fields override the hardware profile defaults for the recorded event.
type AccessRequest struct {
	StudentID    int64  `json:"student_id" validate:"required,gt=0"`
	OccurredAt   string `json:"occurred_at,omitempty" validate:"omitempty,iso8601"`
	CardID       string `json:"card_id,omitempty" validate:"omitempty,max=64"`
	ReaderModel  string `json:"reader_model,omitempty" validate:"omitempty,max=32"`
	Frequency    string `json:"frequency,omitempty" validate:"omitempty,max=32"`
	Transport    string `json:"transport,omitempty" validate:"omitempty,max=32"`
	Connectivity string `json:"connectivity,omitempty" validate:"omitempty,max=32"`
}

type AccessResponse struct {
	Result                AccessResult `json:"result"`
	Reason                AccessReason `json:"reason"`
	UnlockDurationSeconds int          `json:"unlock_duration_seconds"`
}

// AccessEventView is the admin/dashboard projection of a stored event.
type AccessEventView struct {
	ID           int64        `json:"id"`
	DeviceID     int64        `json:"device_id"`
	StudentID    int64        `json:"student_id"`
	Result       AccessResult `json:"result"`
	Reason       AccessReason `json:"reason"`
	Transport    string       `json:"transport"`
	Connectivity string       `json:"connectivity"`
	ReaderModel  string       `json:"reader_model"`
	Frequency    string       `json:"frequency"`
	CardID       string       `json:"card_id,omitempty"`
	OccurredAt   string       `json:"occurred_at"`
}
