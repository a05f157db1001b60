package types_test

import (
	"testing"
	"time"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2026-02-15T12:00:00Z", true, time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)},
		{"2026-02-15T14:00:00+02:00", true, time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)},
		{"2026-02-15T12:00:00.250Z", true, time.Date(2026, 2, 15, 12, 0, 0, 250e6, time.UTC)},
		{"2026-02-15T12:00:00", true, time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)},
		{"2026-02-15", true, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"yesterday", false, time.Time{}},
		{"2026-13-01T00:00:00Z", false, time.Time{}},
	}
	for _, tc := range cases {
		got, ok := types.ParseTimestamp(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseTimestamp(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAccessReasonResult(t *testing.T) {
	if types.AccessReasonOK.Result() != types.AccessAllow {
		t.Error("OK must map to ALLOW")
	}
	for _, r := range []types.AccessReason{
		types.AccessReasonInvalidDevice,
		types.AccessReasonDeviceInactive,
		types.AccessReasonStudentNotFound,
		types.AccessReasonStudentInactive,
	} {
		if r.Result() != types.AccessDeny {
			t.Errorf("%s must map to DENY", r)
		}
	}
}
