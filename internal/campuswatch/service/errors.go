package service

import (
	"errors"
	"strings"
)

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrDeviceHasDependents = errors.New("device has access events or telemetry readings")
	ErrTokenAllocation     = errors.New("could not allocate device token")
)

// FieldError is a validation failure on one named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by administrative operations before any
// write takes place.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
