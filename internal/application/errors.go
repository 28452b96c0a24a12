package application

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique field (room name, participant email) collides.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrRoomUnavailable is returned when a meeting is proposed against a room marked unavailable.
	ErrRoomUnavailable = errors.New("application: room unavailable")
	// ErrInvalidStatusTransition is returned when a requested status change is not allowed by the meeting status machine.
	ErrInvalidStatusTransition = errors.New("application: invalid status transition")
	// ErrMeetingImmutable is returned when an update is attempted against a COMPLETED or CANCELLED meeting.
	ErrMeetingImmutable = errors.New("application: meeting is no longer editable")
	// ErrDecisionBackendDisabled reports a disabled decision backend; ErrorKind and the HTTP responder map it, and no service operation in this package returns it.
	ErrDecisionBackendDisabled = errors.New("application: decision backend is disabled")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// SchedulingError is raised when a delete is refused because the monitor
// reported an ERROR- or CRITICAL-severity violation for it. It carries the
// offending violation descriptions for the caller to surface.
type SchedulingError struct {
	Message    string
	Violations []string
}

func (e *SchedulingError) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Violations, "; ")
}
