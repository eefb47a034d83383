package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business failures. Each kind is itself an error so
// callers can match with errors.Is(err, domain.ErrNoUnitsAvailable).
type ErrorKind string

func (k ErrorKind) Error() string { return string(k) }

// Error kinds returned by the allocation and lifecycle engine.
const (
	ErrNotFound                   ErrorKind = "not_found"
	ErrInvalidStateTransition     ErrorKind = "invalid_state_transition"
	ErrDuplicateActiveApplication ErrorKind = "duplicate_active_application"
	ErrProjectNotVisible          ErrorKind = "project_not_visible"
	ErrNoUnitsAvailable           ErrorKind = "no_units_available"
	ErrNoSlotsAvailable           ErrorKind = "no_slots_available"
	ErrSchedulingConflict         ErrorKind = "scheduling_conflict"
	ErrRoleConflict               ErrorKind = "role_conflict"
	ErrAlreadyRequested           ErrorKind = "already_requested"
	ErrAlreadyReplied             ErrorKind = "already_replied"
	ErrAlreadyRequestedWithdrawal ErrorKind = "already_requested_withdrawal"
	ErrUnauthorizedActor          ErrorKind = "unauthorized_actor"
	ErrUnknownFlatType            ErrorKind = "unknown_flat_type"
	ErrInventory                  ErrorKind = "inventory_error"
	ErrDuplicateRequest           ErrorKind = "duplicate_request"
	ErrManagerHasActiveProject    ErrorKind = "manager_has_active_project"
	ErrNotEligible                ErrorKind = "not_eligible"
	ErrInvalidInput               ErrorKind = "invalid_input"
	ErrAlreadyExists              ErrorKind = "already_exists"
	ErrProjectWindowOpen          ErrorKind = "project_window_open"
)

// Error is the typed failure returned to orchestrators. It unwraps to its Kind.
type Error struct {
	Kind    ErrorKind
	Entity  EntityType
	Key     string
	Message string
}

func (e *Error) Error() string {
	switch {
	case e.Entity != "" && e.Key != "":
		return fmt.Sprintf("%s %s: %s", e.Entity, e.Key, e.Message)
	case e.Message != "":
		return e.Message
	default:
		return string(e.Kind)
	}
}

// Unwrap exposes the kind for errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// Is lets the specific "already requested" kinds also match ErrAlreadyRequested.
func (e *Error) Is(target error) bool {
	if target != ErrAlreadyRequested {
		return false
	}
	return e.Kind == ErrDuplicateRequest || e.Kind == ErrAlreadyRequestedWithdrawal
}

// Errorf builds an Error of the given kind about an entity.
func Errorf(kind ErrorKind, entity EntityType, key, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Key: key, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(entity EntityType, key string) *Error {
	return &Error{Kind: ErrNotFound, Entity: entity, Key: key, Message: "not found"}
}

// KindOf extracts the ErrorKind from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	return ""
}
