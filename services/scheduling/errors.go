// File: services/scheduling/errors.go
package scheduling

import "fmt"

// ConflictKind distinguishes why a slot is unavailable.
type ConflictKind string

const (
	ConflictDoctorBusy ConflictKind = "doctor_busy"
	ConflictBlocked    ConflictKind = "blocked"
)

// ValidationError reports malformed or out-of-policy input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NewValidationError constructs a field-scoped validation failure.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// ConflictError reports that the requested interval is taken.
type ConflictError struct {
	Kind ConflictKind
	Msg  string
}

func (e *ConflictError) Error() string { return e.Msg }

// AuthorizationError reports that the actor may not perform the operation.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// StateError reports an invalid lifecycle transition, e.g. completing an
// already-cancelled appointment.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }
