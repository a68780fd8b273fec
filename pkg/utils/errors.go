// Package utils provides the error taxonomy shared by the intersection packages
package utils

import (
	"fmt"
	"sort"
	"strings"
)

// Error codes
const (
	CodeNilLock       = "NIL_LOCK"
	CodeNotOwner      = "NOT_OWNER"
	CodeAlreadyOwned  = "ALREADY_OWNED"
	CodeLockBusy      = "LOCK_BUSY"
	CodeLockDestroyed = "LOCK_DESTROYED"
	CodeSpawnFailed   = "SPAWN_FAILED"
	CodeRouteNotFound = "ROUTE_NOT_FOUND"
	CodeInvalidRoute  = "INVALID_ROUTE"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeCancelled     = "CANCELLED"
)

// IntersectionError represents an intersection specific error
type IntersectionError struct {
	Code    string
	Message string
	Lock    string
	CarID   int
	Cause   error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *IntersectionError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Lock != "" {
		parts = append(parts, fmt.Sprintf("lock: %s", e.Lock))
	}

	if e.CarID > 0 {
		parts = append(parts, fmt.Sprintf("car: %d", e.CarID))
	}

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		details := make([]string, 0, len(keys))
		for _, k := range keys {
			details = append(details, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		parts = append(parts, fmt.Sprintf("details: {%s}", strings.Join(details, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " - ")
}

// Unwrap returns the underlying cause
func (e *IntersectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, so the sentinel values
// below can be used with errors.Is.
func (e *IntersectionError) Is(target error) bool {
	t, ok := target.(*IntersectionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithLock adds lock information to the error
func (e *IntersectionError) WithLock(name string) *IntersectionError {
	e.Lock = name
	return e
}

// WithCar adds car information to the error
func (e *IntersectionError) WithCar(id int) *IntersectionError {
	e.CarID = id
	return e
}

// WithCause adds cause information to the error
func (e *IntersectionError) WithCause(err error) *IntersectionError {
	e.Cause = err
	return e
}

// WithDetail adds a detail to the error
func (e *IntersectionError) WithDetail(key string, value interface{}) *IntersectionError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Sentinel errors, compared by code
var (
	// ErrNilLock is raised when a nil lock is handed to a lock operation
	ErrNilLock = &IntersectionError{
		Code:    CodeNilLock,
		Message: "nil lock",
	}

	// ErrNotOwner is returned when a task releases a lock it does not hold
	ErrNotOwner = &IntersectionError{
		Code:    CodeNotOwner,
		Message: "lock is not held by the releasing task",
	}

	// ErrAlreadyOwned is returned when a task acquires a lock it already holds
	ErrAlreadyOwned = &IntersectionError{
		Code:    CodeAlreadyOwned,
		Message: "lock is already held by the acquiring task",
	}

	// ErrLockBusy is returned when destroying a lock that still has waiters
	ErrLockBusy = &IntersectionError{
		Code:    CodeLockBusy,
		Message: "lock still has waiting tasks",
	}

	// ErrLockDestroyed is returned when acquiring a destroyed lock
	ErrLockDestroyed = &IntersectionError{
		Code:    CodeLockDestroyed,
		Message: "lock has been destroyed",
	}

	// ErrSpawnFailed is returned when the scheduler refuses a new task
	ErrSpawnFailed = &IntersectionError{
		Code:    CodeSpawnFailed,
		Message: "task spawn failed",
	}

	// ErrRouteNotFound is returned when no route exists for a direction and maneuver
	ErrRouteNotFound = &IntersectionError{
		Code:    CodeRouteNotFound,
		Message: "route not found",
	}

	// ErrInvalidRoute is returned when a route table entry is malformed
	ErrInvalidRoute = &IntersectionError{
		Code:    CodeInvalidRoute,
		Message: "invalid route",
	}

	// ErrConfiguration is returned for invalid configuration
	ErrConfiguration = &IntersectionError{
		Code:    CodeConfiguration,
		Message: "invalid configuration",
	}

	// ErrCancelled is returned when a wait is abandoned because its context ended
	ErrCancelled = &IntersectionError{
		Code:    CodeCancelled,
		Message: "wait cancelled",
	}
)

// NewLockError creates an error for lock issues
func NewLockError(code string, message string, lock string) *IntersectionError {
	return &IntersectionError{
		Code:    code,
		Message: message,
		Lock:    lock,
	}
}

// NewSpawnError creates an error for a refused task
func NewSpawnError(message string, cause error) *IntersectionError {
	return &IntersectionError{
		Code:    CodeSpawnFailed,
		Message: message,
		Cause:   cause,
	}
}

// NewRouteError creates an error for route table issues
func NewRouteError(code string, message string, direction, maneuver string) *IntersectionError {
	return &IntersectionError{
		Code:    code,
		Message: message,
		Details: map[string]interface{}{
			"direction": direction,
			"maneuver":  maneuver,
		},
	}
}

// NewConfigurationError creates an error for configuration issues
func NewConfigurationError(message string) *IntersectionError {
	return &IntersectionError{
		Code:    CodeConfiguration,
		Message: message,
	}
}

// NewCancelledError wraps a context error for an abandoned wait
func NewCancelledError(lock string, cause error) *IntersectionError {
	return &IntersectionError{
		Code:    CodeCancelled,
		Message: "wait cancelled",
		Lock:    lock,
		Cause:   cause,
	}
}

// ErrorCollector collects multiple errors during validation or processing
type ErrorCollector struct {
	errors []error
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collector
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

// HasErrors returns whether any errors were collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// GetErrors returns all collected errors
func (ec *ErrorCollector) GetErrors() []error {
	return ec.errors
}

// Err returns nil when nothing was collected and the collector otherwise
func (ec *ErrorCollector) Err() error {
	if !ec.HasErrors() {
		return nil
	}
	return ec
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (ec *ErrorCollector) Unwrap() []error {
	return ec.errors
}

// Error returns a string representation of all errors
func (ec *ErrorCollector) Error() string {
	if len(ec.errors) == 0 {
		return "no errors"
	}

	if len(ec.errors) == 1 {
		return ec.errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(ec.errors)))

	for i, err := range ec.errors {
		sb.WriteString(fmt.Sprintf("  %d: %v\n", i+1, err))
	}

	return sb.String()
}
