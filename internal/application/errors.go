package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned when the requester may not act on an entity or event.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource, event or user does not exist.
	ErrNotFound = errors.New("application: not found")
)

// ValidationError captures field level validation issues that callers can surface to users.
// It is terminal: requests failing validation are never retried.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
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

// ConflictError reports a booking request that overlaps existing confirmed
// events. It carries every offending event, sorted by start time, so callers
// can explain the conflict and suggest alternatives.
type ConflictError struct {
	ResourceID string
	Conflicts  []Event
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || len(c.Conflicts) == 0 {
		return "booking conflict"
	}
	details := make([]string, 0, len(c.Conflicts))
	for _, event := range c.Conflicts {
		details = append(details, fmt.Sprintf("%q (%s - %s)", event.Title,
			event.Start.Format("2006-01-02 15:04"), event.End.Format("15:04")))
	}
	return "time conflict with existing events: " + strings.Join(details, ", ")
}

// TransportError wraps failures reaching a downstream collaborator such as the
// persistent store or the reasoning engine. Callers may retry at a higher
// level; the wrapped operations never retry on their own.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (t *TransportError) Error() string {
	if t == nil {
		return "transport error"
	}
	if t.Err == nil {
		return fmt.Sprintf("transport error during %s", t.Op)
	}
	return fmt.Sprintf("transport error during %s: %v", t.Op, t.Err)
}

// Unwrap exposes the underlying cause.
func (t *TransportError) Unwrap() error {
	if t == nil {
		return nil
	}
	return t.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
