package store

import "errors"

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrTokenConflict is returned when a device token collides with an
	// existing one. Callers regenerate and retry.
	ErrTokenConflict = errors.New("store: device token already in use")

	// ErrHasDependents is returned when a delete would orphan access
	// events or telemetry readings.
	ErrHasDependents = errors.New("store: row has dependent records")
)
